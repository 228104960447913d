package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"moviehub/pkg/utils"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenService signs short-lived access tokens and long-lived refresh tokens
// with separate secrets, so one can never be presented as the other.
type TokenService struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewTokenService(cfg utils.AuthConfig) TokenService {
	return TokenService{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		Issuer:        cfg.Issuer,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
}

type Claims struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool { return c.Role == RoleAdmin }

var ErrWrongTokenType = errors.New("wrong token type")

// SignAccess returns an access token for u.
func (ts TokenService) SignAccess(u *User) (string, time.Time, error) {
	return ts.sign(u, TokenAccess, "", ts.AccessSecret, ts.AccessTTL)
}

// SignRefresh returns a refresh token for u. Its jti is the key under which
// the caller persists it.
func (ts TokenService) SignRefresh(u *User) (token, jti string, exp time.Time, err error) {
	jti = uuid.NewString()
	token, exp, err = ts.sign(u, TokenRefresh, jti, ts.RefreshSecret, ts.RefreshTTL)
	return token, jti, exp, err
}

func (ts TokenService) sign(u *User, typ, jti string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := Claims{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    ts.Issuer,
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return s, exp, nil
}

// ParseAccess validates an access token.
func (ts TokenService) ParseAccess(raw string) (*Claims, error) {
	return ts.parse(raw, TokenAccess, ts.AccessSecret)
}

// ParseRefresh validates a refresh token's signature and expiry. Whether it
// has been revoked is up to the store.
func (ts TokenService) ParseRefresh(raw string) (*Claims, error) {
	return ts.parse(raw, TokenRefresh, ts.RefreshSecret)
}

func (ts TokenService) parse(raw, typ string, secret []byte) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(ts.Issuer))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TokenType != typ {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
