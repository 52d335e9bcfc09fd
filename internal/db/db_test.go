package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Leganyst/booking-core/internal/config"
)

func TestNewGormDB_SQLite(t *testing.T) {
	gdb, err := NewGormDB(&config.DBConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, sqlDB.Ping())
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
