package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/testdb"
	"moviehub/internal/tmdb"
	"moviehub/pkg/utils"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/movie/popular":
			_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"total_results":2,"results":[{"id":42,"title":"Banned"},{"id":7,"title":"Kept"}]}`))
		case "/genre/movie/list":
			_, _ = w.Write([]byte(`{"genres":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	cfg := utils.Config{
		Auth: utils.AuthConfig{
			AccessSecret:  "a",
			RefreshSecret: "r",
			Issuer:        "test",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			AdminEmails:   []string{"admin@example.com"},
		},
		Catalog: utils.CatalogConfig{PageSize: 5},
	}
	a := newApp(cfg, testdb.Open(t))
	a.external = tmdb.New(tmdb.Config{APIKey: "k", BaseURL: upstream.URL, RatePerSec: 100})
	return a.router()
}

func send(h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func tokenFor(t *testing.T, h http.Handler, username, email string) string {
	t.Helper()
	rec := send(h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/ready", "", nil).Code)
}

func TestAdminCurationShapesCatalog(t *testing.T) {
	h := newTestServer(t)
	admin := tokenFor(t, h, "root", "admin@example.com")
	user := tokenFor(t, h, "neo", "neo@example.com")

	rec := send(h, http.MethodPost, "/api/admin/banned", user, map[string]any{"tmdbId": 42, "media_type": "movie"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = send(h, http.MethodPost, "/api/admin/banned", "", map[string]any{"tmdbId": 42, "media_type": "movie"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(h, http.MethodPost, "/api/admin/banned", admin, map[string]any{"tmdbId": 42, "media_type": "movie"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = send(h, http.MethodPost, "/api/admin/local/media", admin, map[string]any{"media_type": "movie", "title": "House cut"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(h, http.MethodGet, "/api/movie/popular", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page struct {
		Results []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Results, 2)
	assert.Equal(t, int64(-1), page.Results[0].ID)
	assert.Equal(t, int64(7), page.Results[1].ID)
}

func TestUserRoutesRequireAuth(t *testing.T) {
	h := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, send(h, http.MethodGet, "/api/users/me/watchlist", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, send(h, http.MethodGet, "/api/users/me/reviews", "", nil).Code)

	user := tokenFor(t, h, "neo", "neo@example.com")
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/api/users/me/watchlist", user, nil).Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/api/users/me/reviews", user, nil).Code)
	assert.Equal(t, http.StatusOK, send(h, http.MethodGet, "/api/reviews/movie/7", "", nil).Code)
}
