package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"moviehub/internal/apperr"
)

type Handler struct {
	Repo   *Repo
	Tokens TokenService
	// AdminEmails are granted the admin role at registration.
	AdminEmails map[string]bool
	// Cost is the bcrypt cost; zero means bcrypt.DefaultCost.
	Cost int
}

func NewHandler(repo *Repo, tokens TokenService, adminEmails []string) *Handler {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.TrimSpace(strings.ToLower(e)); e != "" {
			admins[e] = true
		}
	}
	return &Handler{Repo: repo, Tokens: tokens, AdminEmails: admins}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/refresh", h.refresh)

	authed := rg.Group("", AuthMiddleware(h.Tokens))
	authed.GET("/me", h.me)
	authed.POST("/change-password", h.changePassword)
	authed.POST("/logout", h.logout)
}

// RegisterAdminRoutes mounts user management; rg is expected to be admin-only.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PUT("/users/:id/role", h.setRole)
}

func (h *Handler) hash(password string) ([]byte, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *registerReq) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	fields := map[string]string{}
	if len(req.Username) < 3 || len(req.Username) > 30 {
		fields["username"] = "must be 3-30 chars"
	}
	if !strings.Contains(req.Email, "@") || len(req.Email) > 255 {
		fields["email"] = "invalid email"
	}
	if len(req.Password) < 8 || len(req.Password) > 72 {
		fields["password"] = "must be 8-72 chars"
	}
	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	if err := req.validate(); err != nil {
		apperr.Respond(c, err)
		return
	}
	ctx := c.Request.Context()

	if u, err := h.Repo.GetByEmail(ctx, req.Email); err != nil {
		apperr.Respond(c, err)
		return
	} else if u != nil {
		apperr.Respond(c, apperr.Conflict("email already exists"))
		return
	}
	if u, err := h.Repo.GetByUsername(ctx, req.Username); err != nil {
		apperr.Respond(c, err)
		return
	} else if u != nil {
		apperr.Respond(c, apperr.Conflict("username already exists"))
		return
	}

	hash, err := h.hash(req.Password)
	if err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindInternal, err, "hash failed"))
		return
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if h.AdminEmails[u.Email] {
		u.Role = RoleAdmin
	}

	// the unique constraints still catch a concurrent registration
	if err := h.Repo.CreateUser(ctx, u); err != nil {
		apperr.Respond(c, err)
		return
	}

	h.issue(c, http.StatusCreated, &u)
}

// issue signs a token pair for u, persists the refresh token and writes the response.
func (h *Handler) issue(c *gin.Context, status int, u *User) {
	access, exp, err := h.Tokens.SignAccess(u)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	refresh, jti, refreshExp, err := h.Tokens.SignRefresh(u)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if err := h.Repo.SaveRefreshToken(c.Request.Context(), jti, u.ID, refresh, refreshExp); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(status, gin.H{
		"user":          u,
		"token":         access,
		"expires_at":    exp.UTC().Format(time.RFC3339),
		"refresh_token": refresh,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		apperr.Respond(c, apperr.BadRequest("email and password required"))
		return
	}

	u, err := h.Repo.GetByEmail(c.Request.Context(), email)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	// don't reveal which part failed
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		apperr.Respond(c, apperr.Unauthorized("invalid credentials"))
		return
	}

	h.issue(c, http.StatusOK, u)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		apperr.Respond(c, apperr.BadRequest("refresh_token required"))
		return
	}
	ctx := c.Request.Context()

	claims, err := h.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		apperr.Respond(c, apperr.Unauthorized("invalid refresh token"))
		return
	}
	ok, err := h.Repo.RefreshTokenValid(ctx, claims.ID, claims.UserID, req.RefreshToken)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if !ok {
		apperr.Respond(c, apperr.Unauthorized("invalid refresh token"))
		return
	}

	// re-read the user so a role change takes effect on refresh
	u, err := h.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if u == nil {
		apperr.Respond(c, apperr.Unauthorized("invalid refresh token"))
		return
	}

	access, exp, err := h.Tokens.SignAccess(u)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      access,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	u, err := h.Repo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if u == nil {
		apperr.Respond(c, apperr.Unauthorized("invalid token"))
		return
	}
	c.JSON(http.StatusOK, u)
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		apperr.Respond(c, apperr.BadRequest("old and new password required"))
		return
	}
	if len(req.NewPassword) < 8 || len(req.NewPassword) > 72 {
		apperr.Respond(c, apperr.Validation(map[string]string{"new_password": "must be 8-72 chars"}))
		return
	}

	claims := MustGetClaims(c)
	ctx := c.Request.Context()
	u, err := h.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if u == nil {
		apperr.Respond(c, apperr.Unauthorized("invalid token"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.OldPassword)); err != nil {
		apperr.Respond(c, apperr.Unauthorized("invalid credentials"))
		return
	}

	hash, err := h.hash(req.NewPassword)
	if err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindInternal, err, "hash failed"))
		return
	}
	if err := h.Repo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

// logout revokes the given refresh token. Access tokens stay valid until they expire.
func (h *Handler) logout(c *gin.Context) {
	var req refreshReq
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		apperr.Respond(c, apperr.BadRequest("refresh_token required"))
		return
	}
	claims := MustGetClaims(c)

	rc, err := h.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil || rc.UserID != claims.UserID {
		apperr.Respond(c, apperr.Unauthorized("invalid refresh token"))
		return
	}
	if err := h.Repo.DeleteRefreshToken(c.Request.Context(), rc.ID, claims.UserID); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type roleReq struct {
	Role string `json:"role"`
}

// setRole grants or revokes admin. The new role shows up in the user's
// next access token.
func (h *Handler) setRole(c *gin.Context) {
	var req roleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.BadRequest("invalid json"))
		return
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role != RoleUser && role != RoleAdmin {
		apperr.Respond(c, apperr.Validation(map[string]string{"role": "must be user or admin"}))
		return
	}

	id := c.Param("id")
	if id == MustGetClaims(c).UserID && role != RoleAdmin {
		apperr.Respond(c, apperr.BadRequest("cannot demote yourself"))
		return
	}

	ctx := c.Request.Context()
	if err := h.Repo.SetRole(ctx, id, role); err != nil {
		apperr.Respond(c, err)
		return
	}
	u, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
