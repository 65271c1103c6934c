package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/affinity/internal/client/models"
	"github.com/dmitrijs2005/affinity/internal/common"
)

// HTTPClient talks to the affinity REST API. It is safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPClient returns a client for the API rooted at baseURL. timeout
// bounds every request; zero means no limit.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", req, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	req := map[string]string{"email": email, "password": password}

	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &s); err != nil {
		return nil, err
	}

	c.SetToken(s.Token)
	return &s, nil
}

// Logout ends the current session on the server and forgets the token
// locally even when the server call fails.
func (c *HTTPClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ChangePassword changes the password of the signed-in user. The server
// revokes every session of the user on success, so the token is dropped.
func (c *HTTPClient) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := map[string]string{"currentPassword": currentPassword, "newPassword": newPassword}
	if err := c.do(ctx, http.MethodPost, "/auth/change-password", req, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, name, email string) (*models.User, error) {
	var u models.User
	req := map[string]string{"name": name, "email": email}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var list []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) UpdateRole(ctx context.Context, userID, role string) (*models.User, error) {
	var u models.User
	path := "/users/" + url.PathEscape(userID) + "/role"
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"role": role}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func mapStatus(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if payload.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, payload.Error)
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	}

	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
