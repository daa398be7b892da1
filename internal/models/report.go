package models

import (
	"database/sql"
	"time"

	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
)

// Report — жалоба на мошенника. Всё, кроме статуса и полей рассмотрения, неизменно после создания.
type Report struct {
	ID              int64                    `db:"id" json:"id"`
	ReporterID      int64                    `db:"reporter_id" json:"reporter_id"`
	Scammer         string                   `db:"scammer" json:"scammer"`
	ScammerID       sql.NullInt64            `db:"scammer_id" json:"scammer_id"`
	Amount          string                   `db:"amount" json:"amount"`
	Description     string                   `db:"description" json:"description"`
	ProofLink       string                   `db:"proof_link" json:"proof_link"`
	Status          valueobject.ReportStatus `db:"status" json:"status"`
	ReviewMessageID sql.NullInt64            `db:"review_message_id" json:"review_message_id"`
	ReviewedBy      sql.NullInt64            `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt      sql.NullTime             `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt       time.Time                `db:"created_at" json:"created_at"`
}

// HasReporter сообщает, известен ли автор жалобы.
func (r *Report) HasReporter() bool {
	return r.ReporterID > 0
}
