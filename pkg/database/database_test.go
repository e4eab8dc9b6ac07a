package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-service/internal/model"
	"order-service/pkg/config"
)

func TestInitDBWithSQLite(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB = config.DBConfig{
		Driver:       "sqlite",
		Path:         "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxIdleConns: 1,
		MaxOpenConns: 5,
		LogLevelName: "silent",
	}

	conn, err := InitDB(cfg, zap.NewNop())
	require.NoError(t, err)

	for _, m := range model.All() {
		assert.True(t, conn.Migrator().HasTable(m), "%T", m)
	}

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
