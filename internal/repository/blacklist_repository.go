package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
	"github.com/ignatzorin/scam-report-bot/internal/repository/common"
)

var ErrBlacklistEntryNotFound = apperror.New(apperror.ErrCodeNotFound, "blacklist entry not found")

type BlacklistRepository struct {
	db *sqlx.DB
}

func NewBlacklistRepository(db *sqlx.DB) *BlacklistRepository {
	return &BlacklistRepository{db: db}
}

func (r *BlacklistRepository) Upsert(ctx context.Context, userID int64, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blacklist (user_id, reason) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET reason = EXCLUDED.reason
	`, userID, reason)
	if err != nil {
		return fmt.Errorf("blacklist repository: upsert %w", err)
	}
	return nil
}

func (r *BlacklistRepository) Get(ctx context.Context, userID int64) (*models.BlacklistEntry, error) {
	return common.GetByField[models.BlacklistEntry](ctx, r.db, "blacklist", "user_id", userID, ErrBlacklistEntryNotFound)
}
