package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_MigratesEmbeddedSchemas(t *testing.T) {
	for _, name := range []string{NameHistory, NameRuns} {
		t.Run(name, func(t *testing.T) {
			db, err := New(Config{
				Path: filepath.Join(t.TempDir(), name+".db"),
				Name: name,
			})
			require.NoError(t, err)
			defer db.Close()

			require.NoError(t, db.Migrate())
			// idempotent
			require.NoError(t, db.Migrate())

			var count int
			err = db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'`).Scan(&count)
			require.NoError(t, err)
			assert.Greater(t, count, 0)
		})
	}
}

func TestMigrate_UnknownDatabase(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db"), Name: "unknown"})
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.Migrate())
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "h.db"), Name: NameHistory})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO price_history (asset, ts, close) VALUES ('BTC', 1, 100)`)
		require.NoError(t, err)
		_, err = tx.Exec(`INSERT INTO price_history (asset, ts, close) VALUES ('BTC', 2, -1)`)
		return err
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM price_history`).Scan(&count))
	assert.Zero(t, count)
}

func TestGetStats(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "r.db"), Name: NameRuns, Profile: ProfileCache})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, NameRuns, stats.Name)
	assert.Greater(t, stats.PageSize, int64(0))
}
