package testutil

import (
	"testing"

	"stackmon/internal/db"

	"github.com/stretchr/testify/require"
)

// SetupTestDB creates a migrated in-memory database closed on test cleanup
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(db.MemoryConfig())
	require.NoError(t, err, "open in-memory database")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, database.Migrate(), "migrate test database")
	return database
}
