package registry

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/internal/models"
	"github.com/lobatera/asistencia/pkg/database"
)

// setupPool connects to TEST_DATABASE_URL and applies migrations; the test is
// skipped when the variable is unset.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = database.Migrate(ctx, pool)
	require.NoError(t, err)
	return pool
}

func TestFindPerson(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	const cedula = "V9200001"
	_, err := pool.Exec(ctx, `INSERT INTO raclobatera (cedula, nombresapellidosrep, sexo, tipopbd, fechaingreso, nombreplantel)
		VALUES ($1, 'MARÍA PÉREZ', 'F', 'D', '2010-09-16', 'U.E. Lobatera')
		ON CONFLICT (cedula) DO NOTHING`, cedula)
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM raclobatera WHERE cedula = $1`, cedula) })

	repo := NewRepository(pool)

	t.Run("found", func(t *testing.T) {
		p, err := repo.FindPerson(ctx, cedula)
		require.NoError(t, err)
		assert.Equal(t, "MARÍA PÉREZ", p.FullName)
		assert.Equal(t, "U.E. Lobatera", p.SchoolName)
		assert.Empty(t, p.Position)
		require.NotNil(t, p.HiredOn)
		assert.Equal(t, calendar.Day(2010, 9, 16), calendar.Normalize(*p.HiredOn))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindPerson(ctx, "V9200002")
		assert.ErrorIs(t, err, models.ErrPersonNotFound)
	})
}
