package banned

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moviehub/internal/testdb"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewRepo(testdb.Open(t))).RegisterRoutes(r.Group("/admin"))
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestBanLifecycle(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodPost, "/admin/banned", map[string]any{"tmdbId": 42, "media_type": "movie", "reason": "dup"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(r, http.MethodPost, "/admin/banned", map[string]any{"tmdbId": 42, "media_type": "movie"})
	require.Equal(t, http.StatusConflict, rec.Code)
	var errBody map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "media already banned", errBody["message"])

	rec = do(r, http.MethodGet, "/admin/banned?media_type=movie", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Results, 1)
	assert.EqualValues(t, 42, list.Results[0]["tmdbId"])

	rec = do(r, http.MethodDelete, "/admin/banned", map[string]any{"tmdbId": 42, "media_type": "movie"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodDelete, "/admin/banned?tmdbId=42&media_type=movie", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBanValidation(t *testing.T) {
	r := newRouter(t)

	rec := do(r, http.MethodPost, "/admin/banned", map[string]any{"media_type": "podcast"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "required", body.Errors["tmdbId"])
	assert.Contains(t, body.Errors, "media_type")
}
