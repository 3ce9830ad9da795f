package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lobatera/asistencia/internal/models"
)

// Repository reads the personnel registry (raclobatera).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registry repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindPerson returns the person with an exact cedula match, or models.ErrPersonNotFound.
func (r *Repository) FindPerson(ctx context.Context, cedula string) (*models.Person, error) {
	const q = `SELECT cedula,
		COALESCE(nombresapellidosrep, ''), COALESCE(sexo, ''), COALESCE(codigorac, ''),
		COALESCE(cargo, ''), COALESCE(tipopbd, ''), fechaingreso,
		COALESCE(codigodea, ''), COALESCE(codigodependencia, ''), COALESCE(nombreplantel, ''),
		COALESCE(situaciontrabajador, ''), COALESCE(horasacademicas, ''), COALESCE(horasadm, ''),
		COALESCE(observacion, ''), COALESCE(codcenvot, ''), COALESCE(centrovotacion, '')
		FROM raclobatera WHERE cedula = $1`
	var p models.Person
	err := r.pool.QueryRow(ctx, q, cedula).Scan(
		&p.Cedula, &p.FullName, &p.Sex, &p.PositionCode,
		&p.Position, &p.StaffType, &p.HiredOn,
		&p.DEACode, &p.DependencyCode, &p.SchoolName,
		&p.EmploymentStatus, &p.AcademicHours, &p.AdministrativeHours,
		&p.Remarks, &p.VotingCenterCode, &p.VotingCenter,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrPersonNotFound
		}
		return nil, fmt.Errorf("lookup person: %w", err)
	}
	return &p, nil
}
