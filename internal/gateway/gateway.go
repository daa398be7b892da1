// Package gateway описывает транспорт чата в терминах, не зависящих от конкретного API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
)

// ErrUnresolved возвращается резолвером, если ник не удалось сопоставить с id.
var ErrUnresolved = errors.New("identifier unresolved")

// Membership statuses, которые разрешают подачу жалобы.
const (
	MemberStatusMember        = "member"
	MemberStatusAdministrator = "administrator"
	MemberStatusCreator       = "creator"
)

// Destination — чат по числовому id либо канал по @username.
type Destination struct {
	ChatID   int64
	Username string
}

// User адресует личный чат пользователя.
func User(id int64) Destination {
	return Destination{ChatID: id}
}

// ParseDestination принимает "-100123" или "@channel".
func ParseDestination(raw string) (Destination, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Destination{}, errors.New("gateway: empty destination")
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Destination{ChatID: id}, nil
	}
	if strings.HasPrefix(raw, "@") && len(raw) > 1 {
		return Destination{Username: raw}, nil
	}
	return Destination{}, fmt.Errorf("gateway: destination %q is neither a chat id nor an @username", raw)
}

func (d Destination) IsZero() bool {
	return d.ChatID == 0 && d.Username == ""
}

// Matches сравнивает назначение с чатом, из которого пришло событие.
func (d Destination) Matches(chatID int64, username string) bool {
	if d.ChatID != 0 {
		return d.ChatID == chatID
	}
	return username != "" && strings.EqualFold(strings.TrimPrefix(d.Username, "@"), username)
}

func (d Destination) String() string {
	if d.Username != "" {
		return d.Username
	}
	return strconv.FormatInt(d.ChatID, 10)
}

// Button — inline-кнопка; Data уходит обратно в callback.
type Button struct {
	Text string
	Data string
}

// Controls — ряды кнопок. Пустое значение снимает клавиатуру.
type Controls [][]Button

// Document — файл для отправки.
type Document struct {
	FileName string
	Data     []byte
	Caption  string
}

// Command — пункт меню команд бота.
type Command struct {
	Name        string
	Description string
}

// Messenger отправляет сообщения и управляет кнопками.
type Messenger interface {
	SendMessage(ctx context.Context, to Destination, text string, controls Controls) (int, error)
	EditControls(ctx context.Context, to Destination, messageID int, controls Controls) error
	SendDocument(ctx context.Context, to Destination, doc Document) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// MembershipQuerier возвращает статус участника канала.
type MembershipQuerier interface {
	QueryMembership(ctx context.Context, channel Destination, userID int64) (string, error)
}

// Resolver сопоставляет ник с числовым id пользователя.
type Resolver interface {
	Resolve(ctx context.Context, handle string) (int64, error)
}

// IsMember сообщает, разрешает ли статус подачу жалобы.
func IsMember(status string) bool {
	switch status {
	case MemberStatusMember, MemberStatusAdministrator, MemberStatusCreator:
		return true
	}
	return false
}

// Escape экранирует пользовательский текст для HTML-разметки сообщений.
func Escape(s string) string {
	return html.EscapeString(s)
}

// UserLink — ссылка на пользователя по id.
func UserLink(id int64, label string) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, id, Escape(label))
}
