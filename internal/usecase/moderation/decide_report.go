package moderation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scam-report-bot/internal/domain/repository"
	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

type Outcome int

const (
	// OutcomeIgnored: жалобы с таким id нет (устаревший или поддельный токен).
	OutcomeIgnored Outcome = iota
	OutcomeApplied
	// OutcomeAlreadySettled: статус уже выставлен другим решением.
	OutcomeAlreadySettled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeApplied:
		return "applied"
	case OutcomeAlreadySettled:
		return "already_settled"
	}
	return "unknown"
}

type DecideInput struct {
	Decision valueobject.Decision
	AdminID  int64
}

type Result struct {
	Outcome Outcome
	// Status — статус жалобы после обработки решения.
	Status valueobject.ReportStatus
}

// Surfaces — чаты, в которые пишет модерация.
type Surfaces struct {
	Review gateway.Destination
	Public gateway.Destination
}

type DecideReportUseCase struct {
	reports   repository.ReportRepository
	blacklist repository.BlacklistRepository
	messenger gateway.Messenger
	surfaces  Surfaces
}

func NewDecideReportUseCase(
	reports repository.ReportRepository,
	blacklist repository.BlacklistRepository,
	messenger gateway.Messenger,
	surfaces Surfaces,
) *DecideReportUseCase {
	return &DecideReportUseCase{
		reports:   reports,
		blacklist: blacklist,
		messenger: messenger,
		surfaces:  surfaces,
	}
}

func (uc *DecideReportUseCase) Execute(ctx context.Context, input DecideInput) (Result, error) {
	report, err := uc.reports.GetByID(ctx, input.Decision.ReportID)
	if apperror.IsNotFound(err) {
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		return Result{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "load report")
	}

	log := logger.Log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"action":    input.Decision.Action,
		"admin_id":  input.AdminID,
	})

	if input.Decision.Action == valueobject.ActionBlacklist {
		return uc.blacklistReporter(ctx, log, report, input.AdminID)
	}
	return uc.settle(ctx, log, report, input)
}

// settle выставляет accepted/denied через compare-and-set.
// Проигравшее решение не публикует и не уведомляет автора повторно.
func (uc *DecideReportUseCase) settle(ctx context.Context, log logrus.FieldLogger, report *models.Report, input DecideInput) (Result, error) {
	target, ok := input.Decision.Action.TargetStatus()
	if !ok {
		return Result{}, apperror.New(apperror.ErrCodeBadRequest, "action does not settle a report")
	}

	applied, err := uc.reports.TransitionStatus(ctx, report.ID, valueobject.ReportStatusPending, target, input.AdminID)
	if err != nil {
		return Result{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "update report status")
	}

	if !applied {
		current, err := uc.reports.GetByID(ctx, report.ID)
		if err != nil {
			return Result{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "reload report")
		}
		if !current.Status.IsSettled() {
			return Result{}, apperror.New(apperror.ErrCodeInternal, fmt.Sprintf("report #%d is %s after a lost transition", report.ID, current.Status))
		}
		log.WithField("status", current.Status).Info("moderation: report already settled")
		uc.notify(ctx, log, uc.surfaces.Review, messages.ReviewAlreadySettled(report.ID, string(current.Status), input.AdminID))
		uc.disableControls(ctx, log, report)
		return Result{Outcome: OutcomeAlreadySettled, Status: current.Status}, nil
	}

	report.Status = target
	var publishErr error

	switch target {
	case valueobject.ReportStatusAccepted:
		if _, err := uc.messenger.SendMessage(ctx, uc.surfaces.Public, messages.PublicPost(report), nil); err != nil {
			// Статус уже принят и не откатывается; повторное решение публикацию не повторит.
			log.WithError(err).Error("moderation: public post failed")
			publishErr = apperror.Wrap(err, apperror.ErrCodeGateway, fmt.Sprintf("publish report #%d", report.ID))
		}
		uc.notify(ctx, log, uc.surfaces.Review, messages.ReviewAccepted(report.ID, input.AdminID))
		if report.HasReporter() {
			uc.notify(ctx, log, gateway.User(report.ReporterID), messages.ReporterAccepted)
		}
	case valueobject.ReportStatusDenied:
		uc.notify(ctx, log, uc.surfaces.Review, messages.ReviewDenied(report.ID, input.AdminID))
		if report.HasReporter() {
			uc.notify(ctx, log, gateway.User(report.ReporterID), messages.ReporterDenied)
		}
	}

	uc.disableControls(ctx, log, report)
	log.WithField("status", target).Info("moderation: report settled")
	return Result{Outcome: OutcomeApplied, Status: target}, publishErr
}

// blacklistReporter блокирует автора жалобы. Статус жалобы не меняется,
// уже опубликованная жалоба остаётся в канале.
func (uc *DecideReportUseCase) blacklistReporter(ctx context.Context, log logrus.FieldLogger, report *models.Report, adminID int64) (Result, error) {
	if !report.HasReporter() {
		uc.disableControls(ctx, log, report)
		return Result{Outcome: OutcomeIgnored, Status: report.Status}, nil
	}

	reason := fmt.Sprintf("report #%d", report.ID)
	if err := uc.blacklist.Upsert(ctx, report.ReporterID, reason); err != nil {
		return Result{}, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "blacklist reporter")
	}

	uc.notify(ctx, log, uc.surfaces.Review, messages.ReviewBlacklisted(report.ReporterID, adminID))
	uc.notify(ctx, log, gateway.User(report.ReporterID), messages.Blacklisted(reason))
	uc.disableControls(ctx, log, report)

	log.WithField("reporter_id", report.ReporterID).Info("moderation: reporter blacklisted")
	return Result{Outcome: OutcomeApplied, Status: report.Status}, nil
}

// disableControls снимает кнопки с карточки. Повторный вызов безвреден, ошибка только логируется.
func (uc *DecideReportUseCase) disableControls(ctx context.Context, log logrus.FieldLogger, report *models.Report) {
	if !report.ReviewMessageID.Valid {
		return
	}
	if err := uc.messenger.EditControls(ctx, uc.surfaces.Review, int(report.ReviewMessageID.Int64), gateway.Controls{}); err != nil {
		log.WithError(err).Warn("moderation: failed to disable decision controls")
	}
}

func (uc *DecideReportUseCase) notify(ctx context.Context, log logrus.FieldLogger, to gateway.Destination, text string) {
	if _, err := uc.messenger.SendMessage(ctx, to, text, nil); err != nil {
		log.WithField("to", to.String()).WithError(err).Warn("moderation: notification not delivered")
	}
}
