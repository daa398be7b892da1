package repository

import (
	"context"

	"github.com/ignatzorin/scam-report-bot/internal/models"
)

type BlacklistRepository interface {
	// Upsert вставляет запись или заменяет причину у существующей.
	Upsert(ctx context.Context, userID int64, reason string) error
	Get(ctx context.Context, userID int64) (*models.BlacklistEntry, error)
}
