package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	HTTPTimeout    time.Duration
	LogLevel       slog.Level
	MaxUploadBytes int64
	ThresholdsFile string
	CORSOrigins    []string
	// precio/costo por defecto cuando el request no los trae
	DefaultUnitPrice float64
	DefaultUnitCost  float64
}

// FromEnv reads the environment, loading a .env file first when present.
func FromEnv() Config {
	_ = godotenv.Load()

	to := 15 * time.Second
	if v := os.Getenv("HTTP_TIMEOUT_SECONDS"); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil {
			to = d
		}
	}
	lvl := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		lvl = slog.LevelDebug
	}
	mb := 20
	if v, err := strconv.Atoi(os.Getenv("MAX_UPLOAD_MB")); err == nil && v > 0 {
		mb = v
	}
	return Config{
		Port:             envOr("PORT", "8080"),
		HTTPTimeout:      to,
		LogLevel:         lvl,
		MaxUploadBytes:   int64(mb) << 20,
		ThresholdsFile:   os.Getenv("THRESHOLDS_FILE"),
		CORSOrigins:      splitList(envOr("CORS_ORIGINS", "*")),
		DefaultUnitPrice: floatOr("DEFAULT_UNIT_PRICE", 0),
		DefaultUnitCost:  floatOr("DEFAULT_UNIT_COST", 0),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func floatOr(k string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(k)), 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
