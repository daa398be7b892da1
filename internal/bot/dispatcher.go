// Package bot маршрутизирует события транспорта: команды, нажатия кнопок и ответы в форме жалобы.
package bot

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scam-report-bot/internal/conversation"
	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/goroutine"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
	"github.com/ignatzorin/scam-report-bot/internal/service"
	"github.com/ignatzorin/scam-report-bot/internal/usecase/moderation"
)

type Conversation interface {
	Start(ctx context.Context, userID int64) (service.Verdict, error)
	HandleMessage(ctx context.Context, userID int64, text string) (conversation.Outcome, error)
}

type Moderator interface {
	Execute(ctx context.Context, input moderation.DecideInput) (moderation.Result, error)
}

type Lookup interface {
	Lookup(ctx context.Context, query string) ([]models.Report, error)
}

type Blacklister interface {
	Add(ctx context.Context, userID int64, reason string) error
}

type Exporter interface {
	Deliver(ctx context.Context, to gateway.Destination) (*service.Export, error)
}

// Deps — зависимости диспетчера. Throttle и Recovery необязательны.
type Deps struct {
	Messenger    gateway.Messenger
	Conversation Conversation
	Moderator    Moderator
	Lookup       Lookup
	Blacklist    Blacklister
	Exporter     Exporter
	Throttle     *Throttle
	Recovery     *goroutine.RecoveryHandler
	// Review — группа модерации; решения принимаются только оттуда.
	Review       gateway.Destination
	MaintainerID int64
}

type Dispatcher struct {
	Deps
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Recovery == nil {
		deps.Recovery = goroutine.NewRecoveryHandler(logger.Log)
	}
	return &Dispatcher{Deps: deps}
}

// Commands — меню команд бота.
func Commands() []gateway.Command {
	return []gateway.Command{
		{Name: "start", Description: "Start the bot"},
		{Name: "id", Description: "Retrieve the current channel ID"},
		{Name: "export", Description: "Export the database to CSV (Admin)"},
		{Name: "lookup", Description: "Lookup scam reports by username"},
		{Name: "blacklist", Description: "Blacklist a user from reporting (Admin)"},
	}
}

// Run обрабатывает события по одному до закрытия канала или отмены ctx.
func (d *Dispatcher) Run(ctx context.Context, events <-chan gateway.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			d.Handle(ctx, event)
		}
	}
}

// Handle обрабатывает одно событие. Ошибки и panic не выходят наружу.
func (d *Dispatcher) Handle(ctx context.Context, event gateway.Event) {
	log := logger.Log.WithFields(logrus.Fields{
		"trace_id": uuid.NewString(),
		"kind":     event.Kind.String(),
		"user_id":  event.UserID,
		"chat_id":  event.ChatID,
	})

	err := d.Recovery.Run("dispatcher", func() {
		if !d.allowed(ctx, log, event) {
			return
		}
		switch event.Kind {
		case gateway.EventCallback:
			d.handleCallback(ctx, log, event)
		case gateway.EventMessage:
			d.handleMessage(ctx, log, event)
		}
	})
	if err != nil {
		log.WithError(err).Error("dispatcher: event handling panicked")
	}
}

func (d *Dispatcher) allowed(ctx context.Context, log logrus.FieldLogger, event gateway.Event) bool {
	if event.UserID == 0 {
		return true
	}
	ok, err := d.Throttle.Allow(ctx, event.UserID)
	if err != nil {
		log.WithError(err).Warn("dispatcher: throttle unavailable")
		return true
	}
	if ok {
		return true
	}

	log.Warn("dispatcher: user throttled")
	if event.Kind == gateway.EventCallback {
		d.answer(ctx, log, event.CallbackID, messages.TooManyRequests)
	}
	return false
}

func (d *Dispatcher) handleMessage(ctx context.Context, log logrus.FieldLogger, event gateway.Event) {
	if event.IsCommand() {
		name, args := event.Command()
		log = log.WithField("command", name)
		if err := d.handleCommand(ctx, event, name, args); err != nil {
			log.WithError(err).Error("dispatcher: command failed")
			d.reply(ctx, log, event, apperror.UserMessage(err), nil)
		}
		return
	}

	if !event.Private || event.UserID == 0 || event.Text == "" {
		return
	}
	outcome, err := d.Conversation.HandleMessage(ctx, event.UserID, event.Text)
	if err != nil {
		// Пользователю уже ответила сама форма.
		log.WithError(err).Error("dispatcher: conversation step failed")
		return
	}
	if outcome != conversation.OutcomeIgnored {
		log.WithField("outcome", outcome.String()).Debug("dispatcher: conversation step")
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, event gateway.Event, name, args string) error {
	switch name {
	case "start":
		return d.send(ctx, event, messages.Welcome, messages.StartControls())
	case "id":
		return d.send(ctx, event, messages.ChatID(event.ChatID), nil)
	case "lookup":
		return d.lookup(ctx, event, args)
	case "export":
		if !d.isMaintainer(event.UserID) {
			return nil
		}
		if _, err := d.Exporter.Deliver(ctx, chatOf(event)); err != nil {
			return d.send(ctx, event, messages.ExportFailed(apperror.UserMessage(err)), nil)
		}
		return nil
	case "blacklist":
		if !d.isMaintainer(event.UserID) {
			return nil
		}
		return d.blacklist(ctx, event, args)
	}
	return nil
}

func (d *Dispatcher) lookup(ctx context.Context, event gateway.Event, query string) error {
	if strings.TrimSpace(query) == "" {
		return d.send(ctx, event, messages.LookupUsage, nil)
	}
	reports, err := d.Lookup.Lookup(ctx, query)
	if apperror.IsBadRequest(err) {
		return d.send(ctx, event, messages.LookupUsage, nil)
	}
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return d.send(ctx, event, messages.LookupNotFound, nil)
	}
	for i := range reports {
		if err := d.send(ctx, event, messages.LookupResult(&reports[i]), nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) blacklist(ctx context.Context, event gateway.Event, args string) error {
	rawID, reason, _ := strings.Cut(args, " ")
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || userID <= 0 {
		return d.send(ctx, event, messages.BlacklistUsage, nil)
	}
	reason = strings.TrimSpace(reason)

	if err := d.Blacklist.Add(ctx, userID, reason); err != nil {
		return err
	}
	return d.send(ctx, event, messages.UserBlacklistedAck(userID, reason), nil)
}

func (d *Dispatcher) handleCallback(ctx context.Context, log logrus.FieldLogger, event gateway.Event) {
	log = log.WithField("data", event.CallbackData)
	var answer string
	defer func() { d.answer(ctx, log, event.CallbackID, answer) }()

	if event.CallbackData == messages.CreateReportToken {
		if event.UserID == 0 {
			return
		}
		if _, err := d.Conversation.Start(ctx, event.UserID); err != nil {
			log.WithError(err).Error("dispatcher: conversation start failed")
			if _, err := d.Messenger.SendMessage(ctx, gateway.User(event.UserID), apperror.GenericFailure, nil); err != nil {
				log.WithError(err).Warn("dispatcher: reply not delivered")
			}
		}
		return
	}

	decision, err := valueobject.ParseDecision(event.CallbackData)
	if err != nil {
		log.Debug("dispatcher: unknown callback")
		return
	}
	if !d.Review.Matches(event.ChatID, event.ChatUsername) {
		log.Warn("dispatcher: decision outside the review chat ignored")
		return
	}

	result, err := d.Moderator.Execute(ctx, moderation.DecideInput{Decision: decision, AdminID: event.UserID})
	if err != nil {
		log.WithError(err).Error("dispatcher: decision failed")
		answer = apperror.UserMessage(err)
		return
	}
	if result.Outcome == moderation.OutcomeAlreadySettled {
		answer = messages.AlreadySettled(string(result.Status))
	}
	log.WithField("outcome", result.Outcome.String()).Info("dispatcher: decision handled")
}

func (d *Dispatcher) isMaintainer(userID int64) bool {
	return d.MaintainerID != 0 && userID == d.MaintainerID
}

func (d *Dispatcher) send(ctx context.Context, event gateway.Event, text string, controls gateway.Controls) error {
	_, err := d.Messenger.SendMessage(ctx, chatOf(event), text, controls)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeGateway, "reply")
	}
	return nil
}

// reply — ответ без возврата ошибки, только лог.
func (d *Dispatcher) reply(ctx context.Context, log logrus.FieldLogger, event gateway.Event, text string, controls gateway.Controls) {
	if err := d.send(ctx, event, text, controls); err != nil {
		log.WithError(err).Warn("dispatcher: reply not delivered")
	}
}

func (d *Dispatcher) answer(ctx context.Context, log logrus.FieldLogger, callbackID, text string) {
	if callbackID == "" {
		return
	}
	if err := d.Messenger.AnswerCallback(ctx, callbackID, text); err != nil {
		log.WithError(err).Debug("dispatcher: callback answer failed")
	}
}

func chatOf(event gateway.Event) gateway.Destination {
	return gateway.Destination{ChatID: event.ChatID}
}
