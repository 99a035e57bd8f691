// Package api is a small Go client for the reservation endpoints.
package api

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
	"time"

	"ladla-backend/internal/reservations"
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// IsStatus reports whether err is an API error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Client struct {
	baseURL    string
	adminKey   string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

// WithAdminKey authenticates admin calls with the static X-Admin-Key.
func WithAdminKey(key string) Option {
	return func(c *Client) { c.adminKey = key }
}

// WithToken authenticates admin calls with a Bearer access token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New builds a client for baseURL, e.g. "https://api.ladla.fr/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WeekReservations lists the reservations of the Monday-based week holding date.
func (c *Client) WeekReservations(ctx context.Context, date string) ([]reservations.Reservation, error) {
	var out []reservations.Reservation
	err := c.do(ctx, http.MethodGet, "/reservations/semaine/"+url.PathEscape(date), nil, &out)
	return out, err
}

func (c *Client) CreateReservation(ctx context.Context, req reservations.CreateRequest) (reservations.Reservation, error) {
	var out reservations.Reservation
	err := c.do(ctx, http.MethodPost, "/reservations", req, &out)
	return out, err
}

func (c *Client) UpdateStatus(ctx context.Context, id, status string) (reservations.Reservation, error) {
	var out reservations.Reservation
	err := c.do(ctx, http.MethodPut, "/reservations/"+url.PathEscape(id)+"/status", reservations.StatusRequest{Status: status}, &out)
	return out, err
}

// WatchWeek fetches the week of date immediately and then every interval,
// handing each result to fn. A failed fetch is passed to fn as err and is
// not retried before the next tick. It returns when ctx is done or fn
// returns an error.
func (c *Client) WatchWeek(ctx context.Context, date string, interval time.Duration, fn func(items []reservations.Reservation, err error) error) error {
	if interval <= 0 {
		return errors.New("api: watch interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		items, err := c.WeekReservations(ctx, date)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(items, err); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.adminKey != "" {
		req.Header.Set("X-Admin-Key", c.adminKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{Status: resp.StatusCode}
		}
		return fmt.Errorf("api: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &Error{Status: resp.StatusCode, Message: env.Error, Details: env.Details}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("api: decode data: %w", err)
	}
	return nil
}
