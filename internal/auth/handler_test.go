package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moviehub/internal/testdb"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewRepo(testdb.Open(t)), testTokens(), []string{"Boss@Example.com"})
	h.Cost = bcrypt.MinCost

	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	admin := r.Group("/admin", AuthMiddleware(h.Tokens), RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	h.RegisterAdminRoutes(admin)
	return r
}

func call(r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
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
	r.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func register(t *testing.T, r http.Handler, username, email string) map[string]any {
	t.Helper()
	rec, body := call(r, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return body
}

func TestRegisterLoginMe(t *testing.T) {
	r := newRouter(t)
	body := register(t, r, "neo", "neo@example.com")
	assert.NotEmpty(t, body["token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "user", body["user"].(map[string]any)["role"])
	assert.Nil(t, body["user"].(map[string]any)["password_hash"])

	rec, body := call(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "NEO@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := body["token"].(string)

	rec, body = call(r, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "neo", body["username"])

	rec, body = call(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "neo@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", body["message"])
}

func TestRegisterValidationAndConflict(t *testing.T) {
	r := newRouter(t)

	rec, body := call(r, http.MethodPost, "/auth/register", "", map[string]string{"username": "x", "email": "nope", "password": "short"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := body["errors"].(map[string]any)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	register(t, r, "neo", "neo@example.com")
	rec, body = call(r, http.MethodPost, "/auth/register", "", map[string]string{"username": "trinity", "email": "neo@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already exists", body["message"])
}

func TestRefreshAndLogout(t *testing.T) {
	r := newRouter(t)
	body := register(t, r, "neo", "neo@example.com")
	access := body["token"].(string)
	refresh := body["refresh_token"].(string)

	rec, out := call(r, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, out["token"])

	rec, _ = call(r, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": access})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = call(r, http.MethodPost, "/auth/logout", access, map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = call(r, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePasswordRevokesRefresh(t *testing.T) {
	r := newRouter(t)
	body := register(t, r, "neo", "neo@example.com")
	access := body["token"].(string)
	refresh := body["refresh_token"].(string)

	rec, _ := call(r, http.MethodPost, "/auth/change-password", access, map[string]string{"old_password": "nope-nope", "new_password": "newpassword1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = call(r, http.MethodPost, "/auth/change-password", access, map[string]string{"old_password": "password123", "new_password": "newpassword1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(r, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = call(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "neo@example.com", "password": "newpassword1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddlewareAndAdmin(t *testing.T) {
	r := newRouter(t)

	rec, body := call(r, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing bearer token", body["message"])

	rec, _ = call(r, http.MethodGet, "/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := register(t, r, "neo", "neo@example.com")["token"].(string)
	rec, _ = call(r, http.MethodGet, "/admin/ping", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	boss := register(t, r, "boss", "boss@example.com")
	assert.Equal(t, "admin", boss["user"].(map[string]any)["role"])
	rec, _ = call(r, http.MethodGet, "/admin/ping", boss["token"].(string), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminSetsRole(t *testing.T) {
	r := newRouter(t)
	boss := register(t, r, "boss", "boss@example.com")
	neo := register(t, r, "neo", "neo@example.com")
	bossToken := boss["token"].(string)
	bossID := boss["user"].(map[string]any)["id"].(string)
	neoID := neo["user"].(map[string]any)["id"].(string)

	rec, _ := call(r, http.MethodPut, "/admin/users/"+neoID+"/role", neo["token"].(string), map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = call(r, http.MethodPut, "/admin/users/"+neoID+"/role", bossToken, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(r, http.MethodPut, "/admin/users/missing/role", bossToken, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(r, http.MethodPut, "/admin/users/"+bossID+"/role", bossToken, map[string]string{"role": "user"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := call(r, http.MethodPut, "/admin/users/"+neoID+"/role", bossToken, map[string]string{"role": "Admin"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "admin", body["role"])

	rec, body = call(r, http.MethodPost, "/auth/login", "", map[string]string{"email": "neo@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(r, http.MethodGet, "/admin/ping", body["token"].(string), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
