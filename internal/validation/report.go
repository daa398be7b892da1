package validation

import "database/sql"

// ReportInput — собранная из диалога жалоба перед сохранением.
type ReportInput struct {
	ReporterID  int64
	Scammer     string
	ScammerID   sql.NullInt64
	Amount      string
	Description string
	ProofLink   string
}

// ValidateReport повторно проверяет запись целиком.
// Поля уже проверялись по шагам; здесь ловим испорченное состояние диалога.
func ValidateReport(in ReportInput) error {
	if in.ReporterID <= 0 {
		return invalid("reporter id must be a positive number")
	}
	if in.ScammerID.Valid && in.ScammerID.Int64 <= 0 {
		return invalid("scammer id must be a positive number")
	}
	if err := ValidateScammerHandle(in.Scammer); err != nil {
		return err
	}
	if err := ValidateAmount(in.Amount); err != nil {
		return err
	}
	if err := ValidateDescription(in.Description); err != nil {
		return err
	}
	return ValidateProofLink(in.ProofLink)
}
