package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"MOVIEHUB_ADDR", "CATALOG_PAGE_SIZE", "MOVIEHUB_ACCESS_TTL", "CORS_ORIGINS", "CATALOG_DEGRADED_FALLBACK"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 20, cfg.Catalog.PageSize)
	assert.False(t, cfg.Catalog.DegradedFallback)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadOverridesAndFallbacks(t *testing.T) {
	t.Setenv("CATALOG_PAGE_SIZE", "12")
	t.Setenv("MOVIEHUB_ACCESS_TTL", "not-a-duration")
	t.Setenv("MOVIEHUB_REFRESH_TTL", "48h")
	t.Setenv("ADMIN_EMAILS", "root@example.com, ops@example.com ,")
	t.Setenv("CATALOG_DEGRADED_FALLBACK", "true")

	cfg := Load()
	assert.Equal(t, 12, cfg.Catalog.PageSize)
	assert.True(t, cfg.Catalog.DegradedFallback)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.Auth.AdminEmails)
}
