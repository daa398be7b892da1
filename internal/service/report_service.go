package service

import (
	"context"
	"strings"

	"github.com/ignatzorin/scam-report-bot/internal/domain/repository"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

const defaultLookupLimit = 20

// ReportService отвечает на поиск опубликованных жалоб.
type ReportService struct {
	repo  repository.ReportRepository
	limit int
}

func NewReportService(r repository.ReportRepository, limit int) *ReportService {
	if limit <= 0 {
		limit = defaultLookupLimit
	}
	return &ReportService{repo: r, limit: limit}
}

// Lookup ищет принятые жалобы по подстроке ника. Ведущий "@" игнорируется.
func (s *ReportService) Lookup(ctx context.Context, query string) ([]models.Report, error) {
	query = strings.TrimPrefix(strings.TrimSpace(query), "@")
	if query == "" {
		return nil, apperror.ErrBadArguments
	}
	reports, err := s.repo.SearchAccepted(ctx, query, s.limit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "lookup reports")
	}
	return reports, nil
}
