package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ignatzorin/scam-report-bot/internal/logger"
)

const connectMaxElapsed = 30 * time.Second

// Бот — единственный клиент базы, большой пул не нужен.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// connectBackoff возвращает новый экземпляр: BackOff хранит состояние.
func connectBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed
	return bo
}

// NewPostgres подключается к PostgreSQL, повторяя попытки при временных сетевых ошибках
// (база ещё стартует рядом с ботом).
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	var conn *sqlx.DB

	err := backoff.RetryNotify(func() error {
		c, err := sqlx.ConnectContext(ctx, "postgres", dsn)
		if err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		conn = c
		return nil
	}, backoff.WithContext(connectBackoff(), ctx), func(err error, wait time.Duration) {
		logger.Log.WithError(err).WithField("retry_in", wait.String()).Warn("postgres: connection failed, retrying")
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: не удалось подключиться: %w", err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)

	return conn, nil
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, transient := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no such host",
		"the database system is starting up",
	} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
