package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
)

// DayEntry is one attendance record with the person's name, for reports.
type DayEntry struct {
	models.AttendanceRecord
	FullName string `json:"full_name"`
}

// Repository is the attendance ledger (asistencia).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindAttendance returns the record occupying key, or nil.
func (r *Repository) FindAttendance(ctx context.Context, key models.AttendanceKey) (*models.AttendanceRecord, error) {
	const q = `SELECT id, cedula, fecha, motivo, convocatoria_id, scope_key, registrado_en
		FROM asistencia WHERE cedula = $1 AND fecha = $2 AND scope_key = $3`
	var rec models.AttendanceRecord
	err := r.pool.QueryRow(ctx, q, key.Cedula, key.Day, key.ScopeKey).
		Scan(&rec.ID, &rec.Cedula, &rec.Day, &rec.Reason, &rec.EventID, &rec.ScopeKey, &rec.RegisteredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	rec.Day = calendar.Normalize(rec.Day)
	return &rec, nil
}

// RecordAttendance inserts rec unless its slot is taken, in which case it
// returns models.ErrAlreadyRegistered. The unique index on
// (cedula, fecha, scope_key) makes the insert safe against concurrent calls.
func (r *Repository) RecordAttendance(ctx context.Context, rec *models.AttendanceRecord) error {
	existing, err := r.FindAttendance(ctx, rec.Key())
	if err != nil {
		return err
	}
	if existing != nil {
		*rec = *existing
		return models.ErrAlreadyRegistered
	}
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now()
	}

	const q = `INSERT INTO asistencia (cedula, fecha, motivo, registrado_en, convocatoria_id, scope_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cedula, fecha, scope_key) DO NOTHING
		RETURNING id`
	err = r.pool.QueryRow(ctx, q, rec.Cedula, rec.Day, rec.Reason, rec.RegisteredAt, rec.EventID, rec.ScopeKey).Scan(&rec.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// ListByDay returns every record of a day with the registry name, oldest first.
func (r *Repository) ListByDay(ctx context.Context, day time.Time) ([]DayEntry, error) {
	const q = `SELECT a.id, a.cedula, a.fecha, a.motivo, a.convocatoria_id, a.scope_key, a.registrado_en,
		COALESCE(p.nombresapellidosrep, '')
		FROM asistencia a LEFT JOIN raclobatera p ON p.cedula = a.cedula
		WHERE a.fecha = $1 ORDER BY a.registrado_en ASC, a.id ASC`
	rows, err := r.pool.Query(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()
	var list []DayEntry
	for rows.Next() {
		var e DayEntry
		if err := rows.Scan(&e.ID, &e.Cedula, &e.Day, &e.Reason, &e.EventID, &e.ScopeKey, &e.RegisteredAt, &e.FullName); err != nil {
			return nil, err
		}
		e.Day = calendar.Normalize(e.Day)
		list = append(list, e)
	}
	return list, rows.Err()
}
