// Package reports exports a day's attendance ledger as CSV.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lobatera/asistencia/internal/attendance"
	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/pkg/storage"
)

// Header is the first CSV row.
var Header = []string{"cedula", "nombre", "fecha", "motivo", "convocatoria_id", "registrado_en"}

// DayLister reads a day's attendance.
type DayLister interface {
	ListByDay(ctx context.Context, day time.Time) ([]attendance.DayEntry, error)
}

// ObjectStore receives uploaded reports.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

// Exporter builds and publishes reports.
type Exporter struct {
	ledger DayLister
	store  ObjectStore
	loc    *time.Location
	logger *zap.Logger
}

// NewExporter creates an exporter. store may be nil when uploads are not configured;
// loc is used for the registrado_en column.
func NewExporter(ledger DayLister, store ObjectStore, loc *time.Location, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{ledger: ledger, store: store, loc: loc, logger: logger}
}

// WriteCSV writes the header and one row per entry.
func WriteCSV(w io.Writer, entries []attendance.DayEntry, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		eventID := ""
		if e.EventID != nil {
			eventID = strconv.FormatInt(*e.EventID, 10)
		}
		row := []string{
			e.Cedula,
			e.FullName,
			calendar.ISO(e.Day),
			e.Reason,
			eventID,
			e.RegisteredAt.In(loc).Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write writes the report for day to w and returns the number of rows.
func (x *Exporter) Write(ctx context.Context, day time.Time, w io.Writer) (int, error) {
	entries, err := x.ledger.ListByDay(ctx, day)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, entries, x.loc); err != nil {
		return 0, fmt.Errorf("write csv: %w", err)
	}
	return len(entries), nil
}

// Export uploads the report for day and returns a pre-signed download URL.
func (x *Exporter) Export(ctx context.Context, day time.Time) (string, error) {
	if x.store == nil {
		return "", storage.ErrNoBucket
	}
	var buf bytes.Buffer
	n, err := x.Write(ctx, day, &buf)
	if err != nil {
		return "", err
	}
	key := storage.ReportKey(calendar.ISO(day))
	if err := x.store.Upload(ctx, key, "text/csv; charset=utf-8", &buf); err != nil {
		return "", err
	}
	x.logger.Info("attendance report exported", zap.String("day", calendar.ISO(day)), zap.Int("rows", n), zap.String("key", key))
	return x.store.PresignedDownloadURL(ctx, key)
}
