package goroutine

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/getsentry/sentry-go"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler перехватывает panic, пишет стек в лог и отправляет событие в Sentry,
// если клиент Sentry инициализирован.
type RecoveryHandler struct {
	logger Logger
	hub    *sentry.Hub
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger, hub: sentry.CurrentHub()}
}

// Run выполняет fn синхронно. Panic превращается в ошибку.
func (rh *RecoveryHandler) Run(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = rh.handle(name, r)
		}
	}()
	fn()
	return nil
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(name string, fn func()) {
	go func() {
		_ = rh.Run(name, fn)
	}()
}

func (rh *RecoveryHandler) handle(name string, r interface{}) error {
	rh.logger.Errorf("Panic in %s: %v\nStack trace:\n%s", name, r, debug.Stack())

	if rh.hub != nil && rh.hub.Client() != nil {
		rh.hub.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("component", name)
			rh.hub.Recover(r)
		})
		rh.hub.Flush(2 * time.Second)
	}
	return fmt.Errorf("panic in %s: %v", name, r)
}
