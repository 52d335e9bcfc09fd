package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/booking-core/internal/calendar"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, SnapshotDB, cfg.SnapshotBackend)
	assert.Equal(t, 5*time.Minute, cfg.ReservationTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30, cfg.SlotIntervalMin)
	assert.False(t, cfg.IsProduction())

	start, end, err := cfg.SlotWindow()
	require.NoError(t, err)
	assert.Equal(t, calendar.MustTimeOfDay("09:00"), start)
	assert.Equal(t, calendar.MustTimeOfDay("17:00"), end)

	grid, err := cfg.Grid()
	require.NoError(t, err)
	assert.Equal(t, calendar.DefaultGrid(), grid)
	assert.Equal(t, 5*time.Second, cfg.PublishTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("RESERVATION_TTL", "90s")
	t.Setenv("SNAPSHOT_BACKEND", "redis")
	t.Setenv("SLOT_START", "08:30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Second, cfg.ReservationTTL)
	assert.Equal(t, SnapshotRedis, cfg.SnapshotBackend)
	assert.Equal(t, "08:30", cfg.SlotStart)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"SNAPSHOT_BACKEND":  "s3",
		"RESERVATION_TTL":   "0s",
		"SLOT_END":          "08:00",
		"SLOT_INTERVAL_MIN": "0",
		"CALENDAR_TZ":       "Mars/Olympus",
		"DAYS_AHEAD":        "1000",
		"PUBLISH_TIMEOUT":   "0s",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RejectsGridWiderThanWindow(t *testing.T) {
	t.Setenv("SLOT_START", "09:00")
	t.Setenv("SLOT_END", "10:00")
	t.Setenv("SLOT_INTERVAL_MIN", "90")
	_, err := Load()
	assert.ErrorIs(t, err, calendar.ErrInvalidGrid)

	t.Setenv("SLOT_INTERVAL_MIN", "1")
	_, err = Load()
	assert.ErrorIs(t, err, calendar.ErrInvalidGrid)
}

func TestLoadDBConfig(t *testing.T) {
	cfg, err := LoadDBConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Contains(t, cfg.DSN(), "dbname=booking_db port=5432")

	t.Setenv("DB_DRIVER", "mysql")
	_, err = LoadDBConfig()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", DriverSQLite)
	cfg, err = LoadDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "booking-core.db", cfg.SQLitePath)
}
