package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Composer.GracePeriod())
	assert.Equal(t, 3, cfg.Composer.TemplateLimit)
	assert.Equal(t, 50, cfg.Composer.SessionCapacity)
	assert.Equal(t, 10*time.Second, cfg.Queue.RetryBackoff())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("COMPOSER_GRACE_PERIOD_MS", "250")
	t.Setenv("COMPOSER_TEMPLATE_LIMIT", "5")
	t.Setenv("DATABASE_URL", "postgres://db/x")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Composer.GracePeriod())
	assert.Equal(t, 5, cfg.Composer.TemplateLimit)
	assert.Equal(t, "postgres://db/x", cfg.Database.DSN())
}

func TestLoad_RejectsBadHours(t *testing.T) {
	t.Setenv("COMPOSER_SESSION_START_HOUR", "23")
	t.Setenv("COMPOSER_SESSION_END_HOUR", "8")
	_, err := Load()
	assert.Error(t, err)
}

func TestComposerConfig_Zone(t *testing.T) {
	cases := map[string]int{
		"+08:00": 8 * 3600,
		"-0530":  -(5*3600 + 30*60),
		"Z":      0,
	}
	for in, want := range cases {
		loc, err := ComposerConfig{ZoneOffset: in}.Zone()
		require.NoError(t, err, in)
		_, off := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
		assert.Equal(t, want, off, in)
	}
	_, err := ComposerConfig{ZoneOffset: "eight"}.Zone()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSNFromParts(t *testing.T) {
	c := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: "5432", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", c.DSN())
}
