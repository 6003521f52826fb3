// Package apiclient is a small HTTP client for the zenscape API used by the CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/zenscape/internal/api"
)

// ErrNoToken is returned by authenticated calls when no bearer token is configured.
var ErrNoToken = errors.New("api token is required")

// Error is a non-2xx API response.
type Error struct {
	Status int
	Type   string `json:"type"`
	Detail string `json:"detail"`
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Detail)
}

// Option configures optional behaviour for the Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// Client calls the zenscape API on behalf of one user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a Client for baseURL authenticated with token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LogActivity records a completed activity for today.
func (c *Client) LogActivity(ctx context.Context, req api.LogActivityRequest) (*api.ActivityView, error) {
	var out api.ActivityView
	if err := c.do(ctx, http.MethodPost, "/v1/activities", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListActivities returns the newest activities, up to limit.
func (c *Client) ListActivities(ctx context.Context, limit int) (*api.ListActivitiesResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out api.ListActivitiesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/activities?"+query.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Streak returns the current streak in days.
func (c *Client) Streak(ctx context.Context) (int, error) {
	var out api.StreakResponse
	if err := c.do(ctx, http.MethodGet, "/v1/activities/streak", nil, &out); err != nil {
		return 0, err
	}
	return out.CurrentStreak, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.token == "" {
		return ErrNoToken
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
