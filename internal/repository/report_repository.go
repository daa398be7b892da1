package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
	"github.com/ignatzorin/scam-report-bot/internal/repository/common"
)

var ErrReportNotFound = apperror.New(apperror.ErrCodeNotFound, "report not found")

// ReportRepository хранит жалобы в таблице reports.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create сохраняет новую жалобу. Статус всегда pending, независимо от поля в структуре.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO reports (reporter_id, scammer, scammer_id, amount, description, proof_link, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending')
		RETURNING id, status, created_at
	`, report.ReporterID, report.Scammer, report.ScammerID, report.Amount, report.Description, report.ProofLink).
		Scan(&report.ID, &report.Status, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	return common.GetByID[models.Report](ctx, r.db, "reports", id, ErrReportNotFound)
}

// SetReviewMessageID запоминает сообщение с кнопками модерации. Повторно не перезаписывается.
func (r *ReportRepository) SetReviewMessageID(ctx context.Context, id int64, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reports SET review_message_id = $2
		WHERE id = $1 AND review_message_id IS NULL
	`, id, messageID)
	if err != nil {
		return fmt.Errorf("report repository: set review message %w", err)
	}
	return nil
}

func (r *ReportRepository) TransitionStatus(ctx context.Context, id int64, from, to valueobject.ReportStatus, reviewerID int64) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("report repository: transition %s -> %s is not allowed", from, to)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE reports SET status = $3, reviewed_by = $4, reviewed_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to, reviewerID)
	if err != nil {
		return false, fmt.Errorf("report repository: transition status %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("report repository: rows affected %w", err)
	}
	return affected == 1, nil
}

// SearchAccepted ищет принятые жалобы по подстроке ника без учёта регистра.
func (r *ReportRepository) SearchAccepted(ctx context.Context, query string, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 20
	}

	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports
		WHERE status = 'accepted' AND scammer ILIKE $1 ESCAPE '\'
		ORDER BY created_at DESC
		LIMIT $2
	`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("report repository: search accepted %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) ListAll(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, `SELECT * FROM reports ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("report repository: list all %w", err)
	}
	return reports, nil
}

// CountReporters возвращает число уникальных авторов жалоб.
func (r *ReportRepository) CountReporters(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(DISTINCT reporter_id) FROM reports`); err != nil {
		return 0, fmt.Errorf("report repository: count reporters %w", err)
	}
	return count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
