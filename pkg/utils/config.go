package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	AdminEmails   []string
}

type TMDBConfig struct {
	APIKey     string
	Language   string
	BaseURL    string
	RatePerSec float64
	CacheTTL   time.Duration
}

type CatalogConfig struct {
	PageSize         int
	DegradedFallback bool
}

type LogConfig struct {
	Level   string
	File    string
	Console bool
}

type Config struct {
	Addr             string
	CORSOrigins      []string
	TokenCleanupSpec string
	Auth             AuthConfig
	TMDB             TMDBConfig
	Catalog          CatalogConfig
	Log              LogConfig
}

// LoadDotEnv reads .env from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load reads the process configuration from the environment.
// Malformed values fall back to their defaults.
func Load() Config {
	return Config{
		Addr:             envString("MOVIEHUB_ADDR", ":8080"),
		CORSOrigins:      envList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		TokenCleanupSpec: envString("TOKEN_CLEANUP_CRON", "@hourly"),
		Auth:             LoadAuthConfig(),
		TMDB: TMDBConfig{
			APIKey:     envString("TMDB_API_KEY", ""),
			Language:   envString("TMDB_LANGUAGE", "en-US"),
			BaseURL:    envString("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			RatePerSec: envFloat("TMDB_RATE_PER_SEC", 40),
			CacheTTL:   envDuration("TMDB_CACHE_TTL", 6*time.Hour),
		},
		Catalog: CatalogConfig{
			PageSize:         envInt("CATALOG_PAGE_SIZE", 20),
			DegradedFallback: envBool("CATALOG_DEGRADED_FALLBACK", false),
		},
		Log: LogConfig{
			Level:   envString("LOG_LEVEL", "info"),
			File:    envString("LOG_FILE", ""),
			Console: envBool("LOG_CONSOLE", true),
		},
	}
}

func LoadAuthConfig() AuthConfig {
	return AuthConfig{
		// dev defaults (change for production)
		AccessSecret:  envString("MOVIEHUB_JWT_SECRET", "dev-secret-change-me"),
		RefreshSecret: envString("MOVIEHUB_JWT_REFRESH_SECRET", "dev-refresh-secret-change-me"),
		Issuer:        envString("MOVIEHUB_JWT_ISSUER", "moviehub"),
		AccessTTL:     envDuration("MOVIEHUB_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    envDuration("MOVIEHUB_REFRESH_TTL", 7*24*time.Hour),
		AdminEmails:   envList("ADMIN_EMAILS", nil),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
