package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 15*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, 4, cfg.Engine.BatchConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Engine.ObserverTimeout)
	assert.Equal(t, 20.0, cfg.RateLimit.RequestsPerSecond)
	assert.Empty(t, cfg.Database.Host)
	assert.True(t, m.IsDevelopment())
	assert.False(t, m.IsProduction())

	require.NoError(t, m.Validate())
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCREENING_SERVER_PORT", "9090")
	t.Setenv("SCREENING_STORE_DRIVER", "none")
	t.Setenv("SCREENING_LOGGING_LEVEL", "debug")
	t.Setenv("SCREENING_ENVIRONMENT", "production")

	m, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 9090, m.GetServerConfig().Port)
	assert.Equal(t, "none", m.GetConfig().Store.Driver)
	assert.Equal(t, "debug", m.GetConfig().Logging.Level)
	assert.True(t, m.IsProduction())
}

func TestManager_Validate(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name   string
		mutate func(m *Manager)
	}{
		{"bad port", func(m *Manager) { m.config.Server.Port = 0 }},
		{"unknown store", func(m *Manager) { m.config.Store.Driver = "mongo" }},
		{"postgres store without database", func(m *Manager) { m.config.Store.Driver = "postgres" }},
		{"database without name", func(m *Manager) {
			m.config.Database.Host = "db"
			m.config.Database.Database = ""
		}},
		{"bad log level", func(m *Manager) { m.config.Logging.Level = "loud" }},
		{"bad rate limit", func(m *Manager) { m.config.RateLimit.Burst = 0 }},
		{"tls without certs", func(m *Manager) { m.config.Server.TLSEnabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager()
			require.NoError(t, err)
			tt.mutate(m)
			assert.Error(t, m.Validate())
		})
	}
}

func TestManager_ConnectionStrings(t *testing.T) {
	t.Chdir(t.TempDir())

	m, err := NewManager()
	require.NoError(t, err)
	m.config.Database.Host = "db.local"
	m.config.Cache.RedisURL = "redis://cache:6379/0"

	assert.Equal(t, "host=db.local port=5432 user=postgres password= dbname=screening sslmode=disable",
		m.GetDatabaseConnectionString())
	assert.Equal(t, "redis://cache:6379/0", m.GetRedisConnectionString())
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("debug", "text", "discard")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	fallback := NewLogger("nonsense", "json", "stdout")
	assert.Equal(t, logrus.InfoLevel, fallback.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, fallback.Formatter)
}
