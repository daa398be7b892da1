// Package conversation ведёт пользователя по форме жалобы из четырёх шагов.
package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scam-report-bot/internal/domain/repository"
	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
	"github.com/ignatzorin/scam-report-bot/internal/service"
	"github.com/ignatzorin/scam-report-bot/internal/validation"
)

// Outcome — чем закончилась обработка сообщения.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeRetry
	OutcomeAdvanced
	OutcomeSubmitted
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeRetry:
		return "retry"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeSubmitted:
		return "submitted"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

// Gate решает, можно ли начать жалобу.
type Gate interface {
	CanStartReport(ctx context.Context, userID int64) (service.Verdict, error)
}

type stepRule struct {
	validate func(string) error
	retry    string
	next     string
}

var rules = map[Step]stepRule{
	StepScammer:     {validate: validation.ValidateScammerHandle, retry: messages.InvalidScammer, next: messages.PromptAmount},
	StepAmount:      {validate: validation.ValidateAmount, retry: messages.InvalidAmount, next: messages.PromptDescription},
	StepDescription: {validate: validation.ValidateDescription, retry: messages.InvalidDescription, next: messages.PromptProof},
	StepProof:       {validate: validation.ValidateProofLink, retry: messages.InvalidProof},
}

// Machine — единственный владелец состояний диалогов.
type Machine struct {
	states    Store
	gate      Gate
	reports   repository.ReportRepository
	messenger gateway.Messenger
	resolver  gateway.Resolver
	review    gateway.Destination
}

func NewMachine(
	states Store,
	gate Gate,
	reports repository.ReportRepository,
	messenger gateway.Messenger,
	resolver gateway.Resolver,
	review gateway.Destination,
) *Machine {
	return &Machine{
		states:    states,
		gate:      gate,
		reports:   reports,
		messenger: messenger,
		resolver:  resolver,
		review:    review,
	}
}

// Start проверяет допуск и начинает форму с первого шага.
// Брошенное ранее состояние перезаписывается.
func (m *Machine) Start(ctx context.Context, userID int64) (service.Verdict, error) {
	verdict, err := m.gate.CanStartReport(ctx, userID)
	if err != nil {
		return service.Verdict{}, err
	}
	if !verdict.Allowed {
		m.reply(ctx, userID, verdict.Reason)
		return verdict, nil
	}

	if err := m.states.Put(ctx, State{UserID: userID, Step: StepScammer}); err != nil {
		return service.Verdict{}, err
	}
	if _, err := m.messenger.SendMessage(ctx, gateway.User(userID), messages.PromptScammer, nil); err != nil {
		return verdict, apperror.Wrap(err, apperror.ErrCodeGateway, "send first prompt")
	}
	return verdict, nil
}

// HandleMessage продвигает форму на один шаг.
func (m *Machine) HandleMessage(ctx context.Context, userID int64, text string) (Outcome, error) {
	// Фото, стикеры и прочее без текста форма не принимает.
	if text == "" || strings.HasPrefix(text, "/") {
		return OutcomeIgnored, nil
	}

	state, ok, err := m.states.Get(ctx, userID)
	if err != nil {
		return m.fail(ctx, userID, err, "load conversation state")
	}
	if !ok {
		return OutcomeIgnored, nil
	}

	if !state.Step.IsValid() {
		// Состояние испорчено: начинать заново.
		return m.abort(ctx, userID, fmt.Errorf("unknown step %d", state.Step))
	}
	rule := rules[state.Step]

	value := strings.TrimSpace(text)
	if err := rule.validate(value); err != nil {
		m.reply(ctx, userID, rule.retry)
		return OutcomeRetry, nil
	}

	switch state.Step {
	case StepScammer:
		state.Draft.Scammer = value
		state.Draft.ScammerID = m.resolve(ctx, value)
	case StepAmount:
		state.Draft.Amount = value
	case StepDescription:
		state.Draft.Description = value
	case StepProof:
		state.Draft.ProofLink = value
		return m.submit(ctx, state)
	}

	state.Step++
	if err := m.states.Put(ctx, state); err != nil {
		return m.fail(ctx, userID, err, "save conversation state")
	}
	m.reply(ctx, userID, rule.next)
	return OutcomeAdvanced, nil
}

// resolve не блокирует форму: неудача просто оставляет id пустым.
func (m *Machine) resolve(ctx context.Context, handle string) sql.NullInt64 {
	if m.resolver == nil {
		return sql.NullInt64{}
	}
	id, err := m.resolver.Resolve(ctx, strings.TrimPrefix(handle, "@"))
	if err != nil || id <= 0 {
		if err != nil && !errors.Is(err, gateway.ErrUnresolved) {
			logger.Log.WithField("handle", handle).WithError(err).Debug("conversation: resolve failed")
		}
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: id, Valid: true}
}

func (m *Machine) submit(ctx context.Context, state State) (Outcome, error) {
	input := validation.ReportInput{
		ReporterID:  state.UserID,
		Scammer:     state.Draft.Scammer,
		ScammerID:   state.Draft.ScammerID,
		Amount:      state.Draft.Amount,
		Description: state.Draft.Description,
		ProofLink:   state.Draft.ProofLink,
	}
	if err := validation.ValidateReport(input); err != nil {
		return m.abort(ctx, state.UserID, err)
	}

	report := &models.Report{
		ReporterID:  input.ReporterID,
		Scammer:     input.Scammer,
		ScammerID:   input.ScammerID,
		Amount:      input.Amount,
		Description: input.Description,
		ProofLink:   input.ProofLink,
		Status:      valueobject.ReportStatusPending,
	}

	// Ничего не записано: состояние остаётся на последнем шаге, ссылку можно прислать ещё раз.
	if err := m.reports.Create(ctx, report); err != nil {
		m.reply(ctx, state.UserID, apperror.GenericFailure)
		return OutcomeIgnored, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "persist report")
	}

	log := logger.Log.WithFields(logrus.Fields{"report_id": report.ID, "user_id": state.UserID})

	// Жалоба уже сохранена, повтор создал бы дубликат: форма закрывается при любом исходе.
	if err := m.states.Delete(ctx, state.UserID); err != nil {
		log.WithError(err).Warn("conversation: failed to drop state")
	}

	if err := m.postForReview(ctx, report); err != nil {
		log.WithError(err).Error("conversation: review post failed")
		m.reply(ctx, state.UserID, apperror.GenericFailure)
		return OutcomeSubmitted, err
	}

	if _, err := m.messenger.SendMessage(ctx, gateway.User(state.UserID), messages.ReportSubmitted, nil); err != nil {
		log.WithError(err).Warn("conversation: confirmation not delivered")
		return OutcomeSubmitted, apperror.Wrap(err, apperror.ErrCodeGateway, "send confirmation")
	}

	log.Info("conversation: report submitted")
	return OutcomeSubmitted, nil
}

func (m *Machine) postForReview(ctx context.Context, report *models.Report) error {
	controls := messages.ReviewControls(
		valueobject.Decision{Action: valueobject.ActionAccept, ReportID: report.ID}.Token(),
		valueobject.Decision{Action: valueobject.ActionDeny, ReportID: report.ID}.Token(),
		valueobject.Decision{Action: valueobject.ActionBlacklist, ReportID: report.ID}.Token(),
	)

	messageID, err := m.messenger.SendMessage(ctx, m.review, messages.ReviewPost(report), controls)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeGateway, "send review post")
	}

	if err := m.reports.SetReviewMessageID(ctx, report.ID, int64(messageID)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "store review message id")
	}
	report.ReviewMessageID = sql.NullInt64{Int64: int64(messageID), Valid: true}
	return nil
}

func (m *Machine) abort(ctx context.Context, userID int64, cause error) (Outcome, error) {
	logger.Log.WithField("user_id", userID).WithError(cause).Warn("conversation: aborted")
	if err := m.states.Delete(ctx, userID); err != nil {
		return OutcomeAborted, err
	}
	m.reply(ctx, userID, messages.ReportInvalid)
	return OutcomeAborted, nil
}

// fail сообщает пользователю об общей ошибке и возвращает причину вызывающему.
func (m *Machine) fail(ctx context.Context, userID int64, cause error, action string) (Outcome, error) {
	m.reply(ctx, userID, apperror.GenericFailure)
	return OutcomeIgnored, apperror.Wrap(cause, apperror.ErrCodeDatabaseError, action)
}

// reply — необязательное сообщение пользователю, ошибка только логируется.
func (m *Machine) reply(ctx context.Context, userID int64, text string) {
	if _, err := m.messenger.SendMessage(ctx, gateway.User(userID), text, nil); err != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Warn("conversation: reply not delivered")
	}
}
