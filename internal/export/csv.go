// Package export сериализует жалобы в CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/ignatzorin/scam-report-bot/internal/models"
)

var Header = []string{
	"id", "reporter_id", "scammer", "scammer_id", "amount", "description",
	"proof_link", "status", "review_message_id", "created_at",
}

// FileName — имя файла выгрузки, например export_20250102T150405.csv.
func FileName(at time.Time) string {
	return "export_" + at.UTC().Format("20060102T150405") + ".csv"
}

// CSV пишет заголовок и по строке на жалобу. Пустые необязательные поля остаются пустыми ячейками.
func CSV(reports []models.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, r := range reports {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.ReporterID, 10),
			r.Scammer,
			nullInt(r.ScammerID.Int64, r.ScammerID.Valid),
			r.Amount,
			r.Description,
			r.ProofLink,
			string(r.Status),
			nullInt(r.ReviewMessageID.Int64, r.ReviewMessageID.Valid),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func nullInt(v int64, valid bool) string {
	if !valid {
		return ""
	}
	return strconv.FormatInt(v, 10)
}
