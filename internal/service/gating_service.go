package service

import (
	"context"
	"fmt"

	"github.com/ignatzorin/scam-report-bot/internal/domain/repository"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

// Verdict — результат проверки допуска к подаче жалобы.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allow() Verdict { return Verdict{Allowed: true} }

func deny(reason string) Verdict { return Verdict{Reason: reason} }

// GatingService решает, может ли пользователь начать жалобу.
// Побочных эффектов нет.
type GatingService struct {
	members   gateway.MembershipQuerier
	blacklist repository.BlacklistRepository
	channel   gateway.Destination
}

func NewGatingService(members gateway.MembershipQuerier, blacklist repository.BlacklistRepository, channel gateway.Destination) *GatingService {
	return &GatingService{members: members, blacklist: blacklist, channel: channel}
}

// CanStartReport: сначала членство в канале, затем чёрный список.
// Ошибка запроса членства означает отказ (fail closed).
func (s *GatingService) CanStartReport(ctx context.Context, userID int64) (Verdict, error) {
	status, err := s.members.QueryMembership(ctx, s.channel, userID)
	if err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Debug("gating: membership query failed")
		return deny(messages.MustJoinChannel), nil
	}
	if !gateway.IsMember(status) {
		return deny(messages.MustJoinChannel), nil
	}

	entry, err := s.blacklist.Get(ctx, userID)
	switch {
	case apperror.IsNotFound(err):
		return allow(), nil
	case err != nil:
		return Verdict{}, fmt.Errorf("gating: blacklist lookup: %w", err)
	}
	return deny(messages.Blacklisted(entry.Reason)), nil
}
