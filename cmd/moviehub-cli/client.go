package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type tokenData struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// apiError carries the server's {"message","errors"} body.
type apiError struct {
	Status  int
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors"`
}

func (e *apiError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+" "+v)
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, ", "))
}

type apiClient struct {
	http    *http.Client
	baseURL string
	token   string
	// refreshToken, when set, lets do renew an expired access token once.
	refreshToken string
	// tokenPath receives renewed tokens; empty keeps them in memory only.
	tokenPath string
}

func (c *apiClient) do(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = b
	}

	err := c.send(ctx, method, path, body, out)
	var ae *apiError
	if !errors.As(err, &ae) || ae.Status != http.StatusUnauthorized || !c.canRefresh(path) {
		return err
	}
	if rerr := c.refresh(ctx); rerr != nil {
		log.Debug().Err(rerr).Msg("token refresh failed")
		return err
	}
	return c.send(ctx, method, path, body, out)
}

func (c *apiClient) canRefresh(path string) bool {
	return c.refreshToken != "" && !strings.HasPrefix(path, "/api/auth/refresh") && !strings.HasPrefix(path, "/api/auth/login")
}

// refresh trades the refresh token for a new access token and persists it.
func (c *apiClient) refresh(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"refresh_token": c.refreshToken})
	if err != nil {
		return err
	}
	var resp tokenData
	if err := c.send(ctx, http.MethodPost, "/api/auth/refresh", body, &resp); err != nil {
		return err
	}
	if resp.Token == "" {
		return errors.New("refresh returned no token")
	}
	c.token = resp.Token
	if c.tokenPath != "" {
		if err := saveToken(c.tokenPath, tokenData{Token: c.token, RefreshToken: c.refreshToken}); err != nil {
			return fmt.Errorf("save refreshed token: %w", err)
		}
	}
	return nil
}

func (c *apiClient) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.baseURL, "/")+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		ae := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(data, ae) != nil || ae.Message == "" {
			ae.Message = strings.TrimSpace(string(data))
		}
		return ae
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.moviehub-token.json"
	}
	return filepath.Join(home, ".moviehub", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.Token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (tokenData, error) {
	var td tokenData
	data, err := os.ReadFile(path)
	if err != nil {
		return td, err
	}
	if err := json.Unmarshal(data, &td); err != nil {
		return td, err
	}
	td.Token = strings.TrimSpace(td.Token)
	if td.Token == "" {
		return td, errors.New("token empty, please login")
	}
	return td, nil
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func websocketURL(baseURL, path, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme:   scheme,
		Host:     u.Host,
		Path:     path,
		RawQuery: url.Values{"token": {token}}.Encode(),
	}).String(), nil
}
