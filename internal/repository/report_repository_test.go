package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

var reportColumns = []string{
	"id", "reporter_id", "scammer", "scammer_id", "amount", "description",
	"proof_link", "status", "review_message_id", "reviewed_by", "reviewed_at", "created_at",
}

func TestReportRepository_Create_ForcesPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reports")).
		WithArgs(int64(111), "scammeruser", sqlmock.AnyArg(), "$50", "Took my money and blocked me", "https://t.me/c/123/45").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(int64(7), "pending", now))

	report := &models.Report{
		ReporterID:  111,
		Scammer:     "scammeruser",
		Amount:      "$50",
		Description: "Took my money and blocked me",
		ProofLink:   "https://t.me/c/123/45",
		Status:      valueobject.ReportStatusAccepted,
	}
	require.NoError(t, repo.Create(context.Background(), report))

	assert.Equal(t, int64(7), report.ID)
	assert.Equal(t, valueobject.ReportStatusPending, report.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM reports WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrReportNotFound)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReportRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM reports WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(reportColumns).AddRow(
			int64(3), int64(111), "scammeruser", nil, "$50", "Took my money", "https://t.me/c/1/2",
			"pending", int64(900), nil, nil, time.Now(),
		))

	report, err := repo.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, report.ScammerID.Valid)
	assert.True(t, report.ReviewMessageID.Valid)
	assert.Equal(t, int64(900), report.ReviewMessageID.Int64)
	assert.Equal(t, valueobject.ReportStatusPending, report.Status)
}

func TestReportRepository_TransitionStatus_CompareAndSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta("UPDATE reports SET status = $3, reviewed_by = $4, reviewed_at = NOW()") +
		".*" + regexp.QuoteMeta("WHERE id = $1 AND status = $2")

	mock.ExpectExec(query).
		WithArgs(int64(5), "pending", "accepted", int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WithArgs(int64(5), "pending", "denied", int64(78)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	applied, err := repo.TransitionStatus(ctx, 5, valueobject.ReportStatusPending, valueobject.ReportStatusAccepted, 77)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = repo.TransitionStatus(ctx, 5, valueobject.ReportStatusPending, valueobject.ReportStatusDenied, 78)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_TransitionStatus_RejectsIllegalTransition(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	_, err := repo.TransitionStatus(context.Background(), 5, valueobject.ReportStatusAccepted, valueobject.ReportStatusDenied, 1)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_SearchAccepted_EscapesPattern(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = 'accepted' AND scammer ILIKE $1")).
		WithArgs(`%al\_ice%`, int64(20)).
		WillReturnRows(sqlmock.NewRows(reportColumns))

	reports, err := repo.SearchAccepted(context.Background(), "al_ice", 0)
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_SetReviewMessageID_OnlyOnce(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND review_message_id IS NULL")).
		WithArgs(int64(9), int64(1234)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetReviewMessageID(context.Background(), 9, 1234))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_CountReporters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT reporter_id) FROM reports")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountReporters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
