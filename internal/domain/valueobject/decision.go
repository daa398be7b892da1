package valueobject

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

// Action — решение модератора по жалобе.
type Action string

const (
	ActionAccept    Action = "accept"
	ActionDeny      Action = "deny"
	ActionBlacklist Action = "blacklist"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionAccept, ActionDeny, ActionBlacklist:
		return true
	}
	return false
}

// TargetStatus возвращает статус, который действие выставляет жалобе.
// Для blacklist статус не меняется, ok = false.
func (a Action) TargetStatus() (ReportStatus, bool) {
	switch a {
	case ActionAccept:
		return ReportStatusAccepted, true
	case ActionDeny:
		return ReportStatusDenied, true
	}
	return "", false
}

// Decision — разобранный токен кнопки модерации.
type Decision struct {
	Action   Action
	ReportID int64
}

// Token кодирует решение в payload кнопки: <action>_<reportId>.
func (d Decision) Token() string {
	return fmt.Sprintf("%s_%d", d.Action, d.ReportID)
}

// ParseDecision разбирает payload кнопки модерации.
func ParseDecision(token string) (Decision, error) {
	action, rawID, ok := strings.Cut(token, "_")
	if !ok {
		return Decision{}, apperror.New(apperror.ErrCodeBadRequest, "malformed decision token")
	}

	a := Action(action)
	if !a.IsValid() {
		return Decision{}, apperror.New(apperror.ErrCodeBadRequest, "unknown decision action")
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return Decision{}, apperror.New(apperror.ErrCodeBadRequest, "malformed report id")
	}

	return Decision{Action: a, ReportID: id}, nil
}
