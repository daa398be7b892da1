// Package scheduler запускает периодическую выгрузку жалоб сопровождающему.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/goroutine"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
	"github.com/ignatzorin/scam-report-bot/internal/service"
)

const exportTimeout = 5 * time.Minute

type Exporter interface {
	Deliver(ctx context.Context, to gateway.Destination) (*service.Export, error)
}

// Scheduler отправляет CSV-бэкап по расписанию cron (UTC).
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	to       gateway.Destination
	recovery *goroutine.RecoveryHandler
}

// New регистрирует задачу выгрузки. Пустое расписание даёт nil: планировщик выключен.
func New(spec string, exporter Exporter, to gateway.Destination, recovery *goroutine.RecoveryHandler) (*Scheduler, error) {
	if spec == "" {
		return nil, nil
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		exporter: exporter,
		to:       to,
		recovery: recovery,
	}
	if _, err := s.cron.AddFunc(spec, s.runExport); err != nil {
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run работает до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	logger.Log.WithField("to", s.to.String()).Info("export scheduler started")

	<-ctx.Done()

	<-s.cron.Stop().Done()
	logger.Log.Info("export scheduler stopped")
	return nil
}

func (s *Scheduler) runExport() {
	err := s.recovery.Run("scheduled export", func() {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		s.export(ctx)
	})
	if err != nil {
		logger.Log.WithError(err).Error("scheduled export panicked")
	}
}

func (s *Scheduler) export(ctx context.Context) {
	exp, err := s.exporter.Deliver(ctx, s.to)
	if errors.Is(err, apperror.ErrEmptyExport) {
		logger.Log.Debug("scheduled export skipped: no reports")
		return
	}
	if err != nil {
		logger.Log.WithError(err).Error("scheduled export failed")
		return
	}
	logger.Log.WithField("file", exp.FileName).Info("scheduled export delivered")
}
