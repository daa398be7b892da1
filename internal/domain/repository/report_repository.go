package repository

import (
	"context"

	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/models"
)

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	SetReviewMessageID(ctx context.Context, id int64, messageID int64) error
	// TransitionStatus выполняет compare-and-set статуса.
	// false без ошибки означает, что статус уже не равен from.
	TransitionStatus(ctx context.Context, id int64, from, to valueobject.ReportStatus, reviewerID int64) (bool, error)
	SearchAccepted(ctx context.Context, query string, limit int) ([]models.Report, error)
	ListAll(ctx context.Context) ([]models.Report, error)
	CountReporters(ctx context.Context) (int, error)
}
