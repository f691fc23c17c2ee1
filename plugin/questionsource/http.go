package questionsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/mazvydas/kasdien/store"
)

// Config holds the question source client configuration.
type Config struct {
	// BaseURL is the base URL of the question source API.
	BaseURL string
	// Timeout is the HTTP timeout for requests.
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout: 15 * time.Second,
	}
}

// Client is the HTTP implementation of Service.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new question source client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// FetchDailyQuestions returns the daily question set for the user.
func (c *Client) FetchDailyQuestions(ctx context.Context, userID string) ([]store.QuestionItem, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/daily-questions", c.config.BaseURL, url.PathEscape(userID))

	var payload struct {
		Questions []store.QuestionItem `json:"questions"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to fetch daily questions")
	}
	return payload.Questions, nil
}

// FetchCategoryQuestions returns a practice question set for one category.
func (c *Client) FetchCategoryQuestions(ctx context.Context, category string, count int, difficulty string) ([]store.QuestionItem, error) {
	values := url.Values{}
	values.Set("category", category)
	values.Set("count", strconv.Itoa(count))
	if difficulty != "" {
		values.Set("difficulty", difficulty)
	}
	endpoint := fmt.Sprintf("%s/v1/questions?%s", c.config.BaseURL, values.Encode())

	var payload struct {
		Questions []store.QuestionItem `json:"questions"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to fetch category questions")
	}
	return payload.Questions, nil
}

// FetchVocabularyPool returns the user's known-word pool.
func (c *Client) FetchVocabularyPool(ctx context.Context, userID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/vocabulary", c.config.BaseURL, url.PathEscape(userID))

	var payload struct {
		Words []string `json:"words"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to fetch vocabulary pool")
	}
	return payload.Words, nil
}

// FetchServerTime returns the API server's current time, used for clock skew
// compensation.
func (c *Client) FetchServerTime(ctx context.Context) (time.Time, error) {
	endpoint := c.config.BaseURL + "/v1/time"

	var payload struct {
		UnixMillis int64 `json:"unixMillis"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return time.Time{}, errors.Wrap(err, "failed to fetch server time")
	}
	return time.UnixMilli(payload.UnixMillis).UTC(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// Ensure Client implements Service.
var _ Service = (*Client)(nil)
