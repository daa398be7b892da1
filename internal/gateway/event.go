package gateway

import "strings"

type EventKind int

const (
	EventMessage EventKind = iota + 1
	EventCallback
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventCallback:
		return "callback"
	}
	return "unknown"
}

// Event — входящее событие транспорта: текстовое сообщение или нажатие кнопки.
type Event struct {
	Kind         EventKind
	UserID       int64
	ChatID       int64
	ChatUsername string
	Private      bool
	Text         string
	// Заполняются только для callback.
	CallbackID   string
	CallbackData string
	MessageID    int
}

// IsCommand: сообщение начинается с "/".
func (e Event) IsCommand() bool {
	return e.Kind == EventMessage && strings.HasPrefix(e.Text, "/")
}

// Command разбирает "/lookup@bot args" на имя команды и аргументы.
func (e Event) Command() (name, args string) {
	if !e.IsCommand() {
		return "", ""
	}
	head, rest, _ := strings.Cut(strings.TrimPrefix(e.Text, "/"), " ")
	name, _, _ = strings.Cut(head, "@")
	return strings.ToLower(name), strings.TrimSpace(rest)
}
