// Package config loads service configuration from the environment, with
// an optional .env file and defaults for everything. Flags in cmd/server
// override whatever is loaded here.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	Port           int
	DBPath         string
	AllowedOrigins []string

	// Background jobs. Specs are standard 5-field cron expressions.
	SchedulerEnabled   bool
	DayCloseSpec       string
	HealthSnapshotSpec string

	// Attendance rules.
	DayEndHour        int // hour used when auto-closing dangling records
	WeekendMinMinutes int // minimum worked minutes for a weekend comp-off

	// AI assistant (Ollama). Disabled unless ASSIST_ENABLED is set.
	AssistEnabled    bool
	AssistEndpoint   string
	AssistModel      string
	AssistTimeoutMs  int
	AssistMaxRetries int
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; missing keys fall back
// to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           envInt("PORT", 8080),
		DBPath:         envStr("DB_PATH", "connect.db"),
		AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		SchedulerEnabled:   envBool("SCHEDULER_ENABLED", true),
		DayCloseSpec:       envStr("DAY_CLOSE_SPEC", "55 23 * * *"),
		HealthSnapshotSpec: envStr("HEALTH_SNAPSHOT_SPEC", "0 * * * *"),

		DayEndHour:        envInt("DAY_END_HOUR", 18),
		WeekendMinMinutes: envInt("WEEKEND_MIN_MINUTES", 240),

		AssistEnabled:    envBool("ASSIST_ENABLED", false),
		AssistEndpoint:   envStr("ASSIST_ENDPOINT", "http://localhost:11434"),
		AssistModel:      envStr("ASSIST_MODEL", "llama3.2"),
		AssistTimeoutMs:  envInt("ASSIST_TIMEOUT_MS", 30000),
		AssistMaxRetries: envInt("ASSIST_MAX_RETRIES", 1),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
