package service

import (
	"context"

	"github.com/ignatzorin/scam-report-bot/internal/domain/repository"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

// BlacklistService — прямая блокировка пользователя сопровождающим бота.
type BlacklistService struct {
	repo      repository.BlacklistRepository
	messenger gateway.Messenger
}

func NewBlacklistService(r repository.BlacklistRepository, m gateway.Messenger) *BlacklistService {
	return &BlacklistService{repo: r, messenger: m}
}

// Add вносит пользователя в чёрный список или заменяет причину.
// Уведомление пользователю не обязательно: он мог ни разу не писать боту.
func (s *BlacklistService) Add(ctx context.Context, userID int64, reason string) error {
	if userID <= 0 {
		return apperror.ErrBadArguments
	}
	if err := s.repo.Upsert(ctx, userID, reason); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "blacklist user")
	}

	if _, err := s.messenger.SendMessage(ctx, gateway.User(userID), messages.Blacklisted(reason), nil); err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Debug("blacklist: user notice not delivered")
	}
	return nil
}
