package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
)

const eventColumns = `id, titulo, activa, fecha_inicio, fecha_fin, fecha_confirmacion, fecha_asistencia`

// Repository resolves convocatorias.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{pool: pool, logger: logger}
}

// ActiveEventFor returns the event active on day, or nil when there is none.
// Only one active event is expected; when several match, the most recently
// started one wins and the overlap is logged.
func (r *Repository) ActiveEventFor(ctx context.Context, day time.Time) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM convocatorias
		WHERE activa = TRUE AND fecha_inicio <= $1 AND fecha_fin >= $1
		ORDER BY fecha_inicio DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("query active events: %w", err)
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query active events: %w", err)
	}
	return pickActive(list, day, r.logger), nil
}

// GetEvent returns a convocatoria by id, or models.ErrEventNotFound.
func (r *Repository) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM convocatorias WHERE id = $1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// pickActive chooses the first candidate of an already ordered list.
func pickActive(list []models.Event, day time.Time, logger *zap.Logger) *models.Event {
	if len(list) == 0 {
		return nil
	}
	if len(list) > 1 {
		ids := make([]int64, 0, len(list))
		for _, e := range list {
			ids = append(ids, e.ID)
		}
		logger.Warn("more than one active event",
			zap.String("day", calendar.ISO(day)),
			zap.Int64s("event_ids", ids),
			zap.Int64("chosen", list[0].ID),
		)
	}
	e := list[0]
	return &e
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Active, &e.StartDate, &e.EndDate, &e.ConfirmationOpenDate, &e.AttendanceDate); err != nil {
		return nil, err
	}
	e.StartDate = calendar.Normalize(e.StartDate)
	e.EndDate = calendar.Normalize(e.EndDate)
	e.ConfirmationOpenDate = calendar.Normalize(e.ConfirmationOpenDate)
	e.AttendanceDate = calendar.Normalize(e.AttendanceDate)
	return &e, nil
}
