package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "finsights")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("AI_API_KEY", "pplx-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "finsights", cfg.Database.Name)
	assert.Equal(t, "sonar-pro", cfg.AI.Model)
	assert.Equal(t, 2, cfg.AI.MaxRetries)
	assert.Equal(t, "Asia/Kolkata", cfg.Scheduler.Timezone)
	assert.Equal(t, 3, cfg.Scenario.DefaultCount)
	assert.Equal(t, 5, cfg.Scenario.MaxCount)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Telegram.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AI_MODEL", "sonar")
	t.Setenv("SCENARIO_DEFAULT_COUNT", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "sonar", cfg.AI.Model)
	assert.Equal(t, 2, cfg.Scenario.DefaultCount)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("DB_USER", "finsights")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("AI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejectsBadTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
}

func TestValidateRejectsDefaultCountAboveMax(t *testing.T) {
	setRequired(t)
	t.Setenv("SCENARIO_DEFAULT_COUNT", "7")
	t.Setenv("SCENARIO_MAX_COUNT", "5")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateTelegramRequiresToken(t *testing.T) {
	setRequired(t)
	t.Setenv("TELEGRAM_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram")
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Name:     "finsights",
		User:     "svc",
		Password: "pw",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=svc password=pw dbname=finsights sslmode=require",
		db.GetDSN(),
	)
}

func TestSchedulerLocation(t *testing.T) {
	sc := SchedulerConfig{Timezone: "Asia/Kolkata"}
	loc := sc.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "Asia/Kolkata", loc.String())
}
