package confirmations

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobatera/asistencia/internal/models"
)

// Repository stores yes/no decisions per (cedula, convocatoria).
type Repository struct {
	pool   *pgxpool.Pool
	policy models.ConfirmationPolicy
}

// NewRepository creates a confirmations repository applying policy on repeated decisions.
func NewRepository(pool *pgxpool.Pool, policy models.ConfirmationPolicy) *Repository {
	if policy == "" {
		policy = models.ConfirmationUpsert
	}
	return &Repository{pool: pool, policy: policy}
}

// Policy returns the configured repeat-decision policy.
func (r *Repository) Policy() models.ConfirmationPolicy { return r.policy }

// GetConfirmation returns the current (most recent) decision, or nil.
func (r *Repository) GetConfirmation(ctx context.Context, cedula string, eventID int64) (*models.Confirmation, error) {
	const q = `SELECT id, cedula, convocatoria_id, confirmo, fecha_confirmacion
		FROM confirmaciones WHERE cedula = $1 AND convocatoria_id = $2
		ORDER BY fecha_confirmacion DESC, id DESC LIMIT 1`
	var c models.Confirmation
	err := r.pool.QueryRow(ctx, q, cedula, eventID).Scan(&c.ID, &c.Cedula, &c.EventID, &c.WillAttend, &c.ConfirmedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	return &c, nil
}

// RecordConfirmation writes a decision according to the policy and fills c.ID.
func (r *Repository) RecordConfirmation(ctx context.Context, c *models.Confirmation) error {
	switch r.policy {
	case models.ConfirmationAppend:
		return r.insert(ctx, c)
	case models.ConfirmationReject:
		existing, err := r.GetConfirmation(ctx, c.Cedula, c.EventID)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.ErrAlreadyConfirmed
		}
		return r.insert(ctx, c)
	default:
		const q = `UPDATE confirmaciones SET confirmo = $3, fecha_confirmacion = $4
			WHERE id = (SELECT id FROM confirmaciones WHERE cedula = $1 AND convocatoria_id = $2
				ORDER BY fecha_confirmacion DESC, id DESC LIMIT 1)
			RETURNING id`
		err := r.pool.QueryRow(ctx, q, c.Cedula, c.EventID, c.WillAttend, c.ConfirmedAt).Scan(&c.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update confirmation: %w", err)
		}
		return r.insert(ctx, c)
	}
}

func (r *Repository) insert(ctx context.Context, c *models.Confirmation) error {
	const q = `INSERT INTO confirmaciones (cedula, convocatoria_id, confirmo, fecha_confirmacion)
		VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.pool.QueryRow(ctx, q, c.Cedula, c.EventID, c.WillAttend, c.ConfirmedAt).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert confirmation: %w", err)
	}
	return nil
}
