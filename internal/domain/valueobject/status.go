package valueobject

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusAccepted ReportStatus = "accepted"
	ReportStatusDenied   ReportStatus = "denied"
)

// IsSettled сообщает, что решение по жалобе уже принято.
func (s ReportStatus) IsSettled() bool {
	return s == ReportStatusAccepted || s == ReportStatusDenied
}

// CanTransitionTo: статус меняется ровно один раз, из pending.
func (s ReportStatus) CanTransitionTo(newStatus ReportStatus) bool {
	transitions := map[ReportStatus][]ReportStatus{
		ReportStatusPending:  {ReportStatusAccepted, ReportStatusDenied},
		ReportStatusAccepted: {},
		ReportStatusDenied:   {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}
