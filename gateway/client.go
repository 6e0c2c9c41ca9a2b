// Package gateway talks to the preferences service over HTTP. It attaches
// the caller's bearer credential to every request and never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"widget-dashboard/preference"
)

const (
	preferencesPath = "/api/preferences"
	loginPath       = "/api/login"
	widgetsPath     = "/api/widgets"
)

// Client is a preference.Gateway over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches the caller's arrangement. A 404 means the user has none yet
// and yields an empty set.
func (c *Client) Load(ctx context.Context, cred preference.Credential) (preference.Set, error) {
	if cred == "" {
		return nil, preference.ErrNoCredential
	}
	resp, err := c.do(ctx, http.MethodGet, preferencesPath, cred, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return preference.Set{}, nil
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return preference.DecodeDocument(resp.Body)
}

// Save replaces the caller's arrangement wholesale.
func (c *Client) Save(ctx context.Context, set preference.Set, cred preference.Credential) error {
	if cred == "" {
		return preference.ErrNoCredential
	}
	body, err := json.Marshal(preference.NewDocument(set))
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, preferencesPath, cred, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return statusError(resp)
}

// Login exchanges an email and password for a credential.
func (c *Client) Login(ctx context.Context, email, password string) (preference.Credential, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := c.do(ctx, http.MethodPost, loginPath, "", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return "", fmt.Errorf("%w: invalid email or password", preference.ErrUnauthorized)
	}
	if err := statusError(resp); err != nil {
		return "", err
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: login response", preference.ErrMalformed)
	}
	return preference.Credential(tok.AccessToken), nil
}

// WidgetInfo is one entry of the service's widget catalogue.
type WidgetInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// Widgets lists the widgets the service knows about.
func (c *Client) Widgets(ctx context.Context) ([]WidgetInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, widgetsPath, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return nil, err
	}
	var out []WidgetInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", preference.ErrMalformed, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, cred preference.Credential, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cred != "" {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", preference.ErrNetwork, err)
	}
	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// statusError maps a non-2xx response onto the preference error taxonomy.
func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", preference.ErrUnauthorized, resp.Status)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: server rejected arrangement: %s", preference.ErrMalformed, readSnippet(resp.Body))
	default:
		return fmt.Errorf("%w: %s", preference.ErrNetwork, resp.Status)
	}
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
