package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	database, err := Init("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(database) })

	require.NoError(t, RunMigrations(database.DB, "sqlite"))

	version, err := MigrationVersion(database.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	var tables []string
	err = database.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('resources', 'files') ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"files", "resources"}, tables)

	require.NoError(t, MigrateDown(database.DB, "sqlite"))
	version, err = MigrationVersion(database.DB, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect("sqlite"))
	assert.Equal(t, "postgres", getDialect("pgx"))
	assert.Equal(t, "mysql", getDialect("mysql"))
}
