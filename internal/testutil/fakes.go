// Package testutil содержит in-memory реализации хранилищ и транспорта для тестов.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ignatzorin/scam-report-bot/internal/domain/valueobject"
	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/models"
	"github.com/ignatzorin/scam-report-bot/internal/repository"
)

// ReportRepo — хранилище жалоб в памяти с тем же compare-and-set, что и в SQL.
type ReportRepo struct {
	mu      sync.Mutex
	nextID  int64
	reports map[int64]models.Report
	// Writes считает успешные смены статуса.
	Writes    int
	CreateErr error
}

func NewReportRepo() *ReportRepo {
	return &ReportRepo{reports: make(map[int64]models.Report)}
}

func (r *ReportRepo) Create(_ context.Context, report *models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.nextID++
	report.ID = r.nextID
	report.Status = valueobject.ReportStatusPending
	report.CreatedAt = time.Now()
	r.reports[report.ID] = *report
	return nil
}

func (r *ReportRepo) GetByID(_ context.Context, id int64) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok {
		return nil, repository.ErrReportNotFound
	}
	return &report, nil
}

func (r *ReportRepo) SetReviewMessageID(_ context.Context, id int64, messageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if ok && !report.ReviewMessageID.Valid {
		report.ReviewMessageID.Int64 = messageID
		report.ReviewMessageID.Valid = true
		r.reports[id] = report
	}
	return nil
}

func (r *ReportRepo) TransitionStatus(_ context.Context, id int64, from, to valueobject.ReportStatus, reviewerID int64) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("transition %s -> %s is not allowed", from, to)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.reports[id]
	if !ok || report.Status != from {
		return false, nil
	}
	report.Status = to
	report.ReviewedBy.Int64, report.ReviewedBy.Valid = reviewerID, true
	report.ReviewedAt.Time, report.ReviewedAt.Valid = time.Now(), true
	r.reports[id] = report
	r.Writes++
	return true, nil
}

func (r *ReportRepo) SearchAccepted(_ context.Context, query string, limit int) ([]models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Report
	for _, report := range r.sorted() {
		if report.Status == valueobject.ReportStatusAccepted &&
			strings.Contains(strings.ToLower(report.Scammer), strings.ToLower(query)) {
			out = append(out, report)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ReportRepo) ListAll(_ context.Context) ([]models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(), nil
}

func (r *ReportRepo) CountReporters(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int64]struct{})
	for _, report := range r.reports {
		seen[report.ReporterID] = struct{}{}
	}
	return len(seen), nil
}

// Put кладёт жалобу как есть, для подготовки данных в тестах.
func (r *ReportRepo) Put(report models.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if report.ID > r.nextID {
		r.nextID = report.ID
	}
	r.reports[report.ID] = report
}

func (r *ReportRepo) sorted() []models.Report {
	out := make([]models.Report, 0, len(r.reports))
	for _, report := range r.reports {
		out = append(out, report)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BlacklistRepo — чёрный список в памяти с семантикой upsert.
type BlacklistRepo struct {
	mu      sync.Mutex
	entries map[int64]models.BlacklistEntry
}

func NewBlacklistRepo() *BlacklistRepo {
	return &BlacklistRepo{entries: make(map[int64]models.BlacklistEntry)}
}

func (r *BlacklistRepo) Upsert(_ context.Context, userID int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		entry = models.BlacklistEntry{UserID: userID, CreatedAt: time.Now()}
	}
	entry.Reason = reason
	r.entries[userID] = entry
	return nil
}

func (r *BlacklistRepo) Get(_ context.Context, userID int64) (*models.BlacklistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[userID]
	if !ok {
		return nil, repository.ErrBlacklistEntryNotFound
	}
	return &entry, nil
}

func (r *BlacklistRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sent — одно отправленное сообщение.
type Sent struct {
	To        gateway.Destination
	Text      string
	Controls  gateway.Controls
	MessageID int
}

// Edit — одно изменение клавиатуры.
type Edit struct {
	To        gateway.Destination
	MessageID int
	Controls  gateway.Controls
}

// Messenger записывает всё, что отправил бы транспорт.
type Messenger struct {
	mu        sync.Mutex
	nextID    int
	Sent      []Sent
	Edits     []Edit
	Documents []gateway.Document
	Answers   map[string]string
	// FailTo — назначения, отправка в которые завершается ошибкой.
	FailTo  map[gateway.Destination]error
	EditErr error
	// Members — ответы на запрос членства; отсутствующий пользователь даёт ошибку.
	Members map[int64]string
}

func NewMessenger() *Messenger {
	return &Messenger{
		nextID:  100,
		Answers: make(map[string]string),
		FailTo:  make(map[gateway.Destination]error),
		Members: make(map[int64]string),
	}
}

var ErrNotMember = errors.New("Bad Request: user not found")

func (m *Messenger) SendMessage(_ context.Context, to gateway.Destination, text string, controls gateway.Controls) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailTo[to]; err != nil {
		return 0, err
	}
	m.nextID++
	m.Sent = append(m.Sent, Sent{To: to, Text: text, Controls: controls, MessageID: m.nextID})
	return m.nextID, nil
}

func (m *Messenger) EditControls(_ context.Context, to gateway.Destination, messageID int, controls gateway.Controls) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditErr != nil {
		return m.EditErr
	}
	m.Edits = append(m.Edits, Edit{To: to, MessageID: messageID, Controls: controls})
	return nil
}

func (m *Messenger) SendDocument(_ context.Context, to gateway.Destination, doc gateway.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.FailTo[to]; err != nil {
		return err
	}
	m.Documents = append(m.Documents, doc)
	return nil
}

func (m *Messenger) AnswerCallback(_ context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Answers[callbackID] = text
	return nil
}

func (m *Messenger) QueryMembership(_ context.Context, _ gateway.Destination, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.Members[userID]
	if !ok {
		return "", ErrNotMember
	}
	return status, nil
}

// SentTo возвращает сообщения, отправленные в назначение.
func (m *Messenger) SentTo(to gateway.Destination) []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Sent
	for _, s := range m.Sent {
		if s.To == to {
			out = append(out, s)
		}
	}
	return out
}

// Last — последнее сообщение в назначение, пустое значение если его нет.
func (m *Messenger) Last(to gateway.Destination) Sent {
	sent := m.SentTo(to)
	if len(sent) == 0 {
		return Sent{}
	}
	return sent[len(sent)-1]
}

func (m *Messenger) EditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Edits)
}

// Resolver возвращает заранее заданные id.
type Resolver struct {
	IDs map[string]int64
}

func (r Resolver) Resolve(_ context.Context, handle string) (int64, error) {
	if id, ok := r.IDs[handle]; ok {
		return id, nil
	}
	return 0, gateway.ErrUnresolved
}
