package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_Ordered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
	for _, n := range names {
		assert.True(t, strings.HasSuffix(n, ".sql"))
	}
}

func TestMigrations_AreIdempotent(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	for _, n := range names {
		raw, err := migrationsFS.ReadFile("migrations/" + n)
		require.NoError(t, err)
		for _, stmt := range strings.Split(string(raw), ";") {
			s := strings.ToUpper(strings.TrimSpace(stmt))
			if strings.HasPrefix(s, "CREATE TABLE") || strings.HasPrefix(s, "CREATE INDEX") {
				assert.Contains(t, s, "IF NOT EXISTS", n)
			}
		}
	}
}
