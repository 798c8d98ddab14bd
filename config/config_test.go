package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "connect.db", cfg.DBPath)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 18, cfg.DayEndHour)
	assert.Equal(t, 240, cfg.WeekendMinMinutes)
	assert.False(t, cfg.AssistEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://connect.example.com, https://staging.example.com")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, []string{"https://connect.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("ASSIST_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.AssistEnabled)
}
