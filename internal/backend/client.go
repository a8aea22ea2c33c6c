// Package backend talks to the program's external REST backend.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/mileswise/internal/model"
	"github.com/sethvargo/go-retry"
)

// ErrNotFound is returned when the backend has no record for the requested key.
var ErrNotFound = errors.New("backend: not found")

// Config holds backend connection settings.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries uint64
}

// Client calls the backend with the configured bearer token attached.
type Client struct {
	cfg        Config
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient returns a client. An empty BaseURL yields nil: the backend is optional.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		backoff: 200 * time.Millisecond,
	}
}

// FetchFlight looks a flight up by number. Server errors and transport
// failures are retried with exponential backoff; a 404 is not.
func (c *Client) FetchFlight(ctx context.Context, number string) (*model.Flight, error) {
	endpoint := c.cfg.BaseURL + "/api/flights/" + url.PathEscape(number)

	var flight model.Flight
	b := retry.WithMaxRetries(c.cfg.MaxRetries, retry.NewExponential(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		return c.getJSON(ctx, endpoint, &flight)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch flight %s: %w", number, err)
	}
	return &flight, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
