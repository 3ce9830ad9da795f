package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTune(t *testing.T) {
	t.Run("fills connect timeout", func(t *testing.T) {
		cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/registro")
		require.NoError(t, err)
		tune(cfg)
		assert.Equal(t, connectTimeout, cfg.ConnConfig.ConnectTimeout)
		assert.Equal(t, maxConnIdleTime, cfg.MaxConnIdleTime)
		assert.Equal(t, healthCheckPeriod, cfg.HealthCheckPeriod)
	})

	t.Run("keeps dsn connect timeout", func(t *testing.T) {
		cfg, err := pgxpool.ParseConfig("postgres://u:p@localhost:5432/registro?connect_timeout=2")
		require.NoError(t, err)
		tune(cfg)
		assert.Equal(t, 2*time.Second, cfg.ConnConfig.ConnectTimeout)
	})
}

func TestNewPostgresPool_BadDSN(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "postgres://u:p@localhost:5432/db?pool_max_conns=abc", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse pgx config")
}
