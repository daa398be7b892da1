// Package telegram реализует gateway поверх Telegram Bot API (long polling).
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scam-report-bot/internal/gateway"
)

const defaultPollTimeout = 60

// Gateway — адаптер Bot API. Библиотека не принимает context, поэтому
// отменённый контекст проверяется перед каждым запросом.
type Gateway struct {
	api         *tgbotapi.BotAPI
	log         logrus.FieldLogger
	pollTimeout int
}

// New подключается к Bot API по токену (getMe выполняется сразу).
func New(token string, pollTimeout int, log logrus.FieldLogger) (*Gateway, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect %w", err)
	}
	return NewWithAPI(api, pollTimeout, log), nil
}

// NewWithAPI оборачивает уже созданный клиент, например с другим endpoint.
func NewWithAPI(api *tgbotapi.BotAPI, pollTimeout int, log logrus.FieldLogger) *Gateway {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &Gateway{api: api, log: log, pollTimeout: pollTimeout}
}

// Username — имя бота без "@".
func (g *Gateway) Username() string {
	return g.api.Self.UserName
}

// SetCommands регистрирует меню команд.
func (g *Gateway) SetCommands(ctx context.Context, commands []gateway.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	list := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, c := range commands {
		list = append(list, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	if _, err := g.api.Request(tgbotapi.NewSetMyCommands(list...)); err != nil {
		return fmt.Errorf("telegram: set commands %w", err)
	}
	return nil
}

func (g *Gateway) SendMessage(ctx context.Context, to gateway.Destination, text string, controls gateway.Controls) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(to.ChatID, text)
	msg.ChannelUsername = to.Username
	msg.ParseMode = tgbotapi.ModeHTML
	if len(controls) > 0 {
		msg.ReplyMarkup = keyboard(controls)
	}

	sent, err := g.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("telegram: send message to %s %w", to, err)
	}
	return sent.MessageID, nil
}

// EditControls заменяет клавиатуру сообщения; пустые controls снимают её.
func (g *Gateway) EditControls(ctx context.Context, to gateway.Destination, messageID int, controls gateway.Controls) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(to.ChatID, messageID, keyboard(controls))
	edit.ChannelUsername = to.Username

	if _, err := g.api.Request(edit); err != nil {
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("telegram: edit controls %s/%d %w", to, messageID, err)
	}
	return nil
}

func (g *Gateway) SendDocument(ctx context.Context, to gateway.Destination, doc gateway.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := tgbotapi.NewDocument(to.ChatID, tgbotapi.FileBytes{Name: doc.FileName, Bytes: doc.Data})
	cfg.ChannelUsername = to.Username
	cfg.Caption = doc.Caption

	if _, err := g.api.Send(cfg); err != nil {
		return fmt.Errorf("telegram: send document to %s %w", to, err)
	}
	return nil
}

func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := g.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("telegram: answer callback %w", err)
	}
	return nil
}

func (g *Gateway) QueryMembership(ctx context.Context, channel gateway.Destination, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	member, err := g.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID:             channel.ChatID,
			SuperGroupUsername: channel.Username,
			UserID:             userID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("telegram: get chat member %w", err)
	}
	return member.Status, nil
}

// Resolve ищет пользователя по нику через getChat. Бот видит только тех,
// кто с ним взаимодействовал, поэтому промах — обычная ситуация.
func (g *Gateway) Resolve(ctx context.Context, handle string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return 0, gateway.ErrUnresolved
	}

	chat, err := g.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + handle},
	})
	if err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) {
			return 0, gateway.ErrUnresolved
		}
		return 0, fmt.Errorf("telegram: get chat %w", err)
	}
	if chat.ID <= 0 {
		// Группа или канал, не пользователь.
		return 0, gateway.ErrUnresolved
	}
	return chat.ID, nil
}

// Updates запускает long polling и переводит обновления в события.
// Канал закрывается после отмены ctx.
func (g *Gateway) Updates(ctx context.Context) <-chan gateway.Event {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = g.pollTimeout
	cfg.AllowedUpdates = []string{"message", "channel_post", "callback_query"}

	updates := g.api.GetUpdatesChan(cfg)
	events := make(chan gateway.Event)

	go func() {
		defer close(events)
		defer g.api.StopReceivingUpdates()

		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				event, ok := ToEvent(update)
				if !ok {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events
}

// ToEvent переводит обновление Bot API в событие. Прочие типы обновлений пропускаются.
func ToEvent(update tgbotapi.Update) (gateway.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		event := gateway.Event{
			Kind:         gateway.EventCallback,
			CallbackID:   cb.ID,
			CallbackData: cb.Data,
		}
		if cb.From != nil {
			event.UserID = cb.From.ID
		}
		if cb.Message != nil {
			event.MessageID = cb.Message.MessageID
			if cb.Message.Chat != nil {
				event.ChatID = cb.Message.Chat.ID
				event.ChatUsername = cb.Message.Chat.UserName
				event.Private = cb.Message.Chat.IsPrivate()
			}
		}
		return event, true

	case update.Message != nil:
		return messageEvent(update.Message), update.Message.Chat != nil

	case update.ChannelPost != nil:
		return messageEvent(update.ChannelPost), update.ChannelPost.Chat != nil
	}
	return gateway.Event{}, false
}

func messageEvent(m *tgbotapi.Message) gateway.Event {
	event := gateway.Event{
		Kind:      gateway.EventMessage,
		Text:      m.Text,
		MessageID: m.MessageID,
	}
	if m.From != nil {
		event.UserID = m.From.ID
	}
	if m.Chat != nil {
		event.ChatID = m.Chat.ID
		event.ChatUsername = m.Chat.UserName
		event.Private = m.Chat.IsPrivate()
	}
	return event
}

func keyboard(controls gateway.Controls) tgbotapi.InlineKeyboardMarkup {
	// Пустой массив, а не null: так Telegram снимает клавиатуру.
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(controls))
	for _, row := range controls {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && strings.Contains(apiErr.Message, "message is not modified")
}
