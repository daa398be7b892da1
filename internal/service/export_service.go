package service

import (
	"context"
	"time"

	"github.com/ignatzorin/scam-report-bot/internal/domain/repository"
	"github.com/ignatzorin/scam-report-bot/internal/export"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/messages"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

// Export — готовая выгрузка всех жалоб.
type Export struct {
	FileName  string
	Data      []byte
	Reporters int
	Took      time.Duration
}

func (e *Export) Caption() string {
	return messages.ExportCaption(e.Reporters, float64(e.Took.Microseconds())/1000)
}

type ExportService struct {
	repo      repository.ReportRepository
	messenger gateway.Messenger
	now       func() time.Time
}

func NewExportService(r repository.ReportRepository, m gateway.Messenger) *ExportService {
	return &ExportService{repo: r, messenger: m, now: time.Now}
}

// Build собирает CSV со всеми жалобами. Пустая база — ErrEmptyExport.
func (s *ExportService) Build(ctx context.Context) (*Export, error) {
	started := s.now()

	reports, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "list reports")
	}
	if len(reports) == 0 {
		return nil, apperror.ErrEmptyExport
	}

	data, err := export.CSV(reports)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "encode csv")
	}

	reporters, err := s.repo.CountReporters(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "count reporters")
	}

	return &Export{
		FileName:  export.FileName(started),
		Data:      data,
		Reporters: reporters,
		Took:      s.now().Sub(started),
	}, nil
}

// Deliver собирает выгрузку и отправляет её документом.
func (s *ExportService) Deliver(ctx context.Context, to gateway.Destination) (*Export, error) {
	exp, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}
	doc := gateway.Document{FileName: exp.FileName, Data: exp.Data, Caption: exp.Caption()}
	if err := s.messenger.SendDocument(ctx, to, doc); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeGateway, "send export")
	}
	return exp, nil
}
