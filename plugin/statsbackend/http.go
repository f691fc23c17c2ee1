package statsbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/mazvydas/kasdien/store"
)

// Config holds the stats backend client configuration.
type Config struct {
	// BaseURL is the base URL of the stats backend API.
	BaseURL string
	// Timeout is the HTTP timeout for requests.
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

// Client is the HTTP implementation of Service.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new stats backend client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// SubmitAnswerOutcome reports one outcome and returns the authoritative stats.
func (c *Client) SubmitAnswerOutcome(ctx context.Context, userID, questionID string, wasCorrect bool) (*store.UserProgressStats, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/outcomes", c.config.BaseURL, url.PathEscape(userID))

	body, err := json.Marshal(map[string]any{
		"questionId": questionID,
		"wasCorrect": wasCorrect,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal outcome")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to submit answer outcome")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	stats := &store.UserProgressStats{}
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, errors.Wrap(err, "failed to decode stats response")
	}
	stats.UserID = userID
	return stats, nil
}

// GetStats returns the authoritative stats for the user.
func (c *Client) GetStats(ctx context.Context, userID string) (*store.UserProgressStats, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/stats", c.config.BaseURL, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get stats")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	stats := &store.UserProgressStats{}
	if err := json.NewDecoder(resp.Body).Decode(stats); err != nil {
		return nil, errors.Wrap(err, "failed to decode stats response")
	}
	stats.UserID = userID
	return stats, nil
}

// Ensure Client implements Service.
var _ Service = (*Client)(nil)
