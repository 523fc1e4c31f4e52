// Package strava fetches activity records from the Strava v3 API. It owns
// transport, retry, and pagination concerns only; records are handed to the
// analysis package untouched.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/renaultste-svg/strava-miguel-dashboard/internal/logging"
)

const (
	baseURL = "https://www.strava.com/api/v3"
	perPage = 200

	// maxPages bounds the pagination loop so a misbehaving API response can
	// never spin the fetch forever (200 * 50 = 10k activities per fetch).
	maxPages = 50
)

// Default retry settings
const (
	defaultMaxRetries     = 4
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 2 * time.Minute
)

// RawActivity is one activity exactly as the API reports it. Every field the
// service may omit is a pointer so "absent" and "zero" stay distinguishable
// until normalization applies its defaulting rules.
type RawActivity struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Type           *string    `json:"type,omitempty"`
	SportType      *string    `json:"sport_type,omitempty"`
	Distance       *float64   `json:"distance,omitempty"`
	MovingTime     *float64   `json:"moving_time,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	StartDateLocal *time.Time `json:"start_date_local,omitempty"`
	Calories       *float64   `json:"calories,omitempty"`
	Kilojoules     *float64   `json:"kilojoules,omitempty"`
}

// ErrRateLimited indicates the API returned 429 and retries were exhausted.
var ErrRateLimited = fmt.Errorf("rate limited by strava")

// ErrTooManyPages indicates pagination hit the safety bound.
var ErrTooManyPages = fmt.Errorf("pagination exceeded %d pages", maxPages)

// Client is a Strava API client with automatic retry and backoff.
type Client struct {
	httpClient  *retryablehttp.Client
	accessToken string
	baseURL     string
}

// RetryConfig holds retry/backoff settings.
type RetryConfig struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: defaultMaxRetries,
		MinWait:    defaultInitialBackoff,
		MaxWait:    defaultMaxBackoff,
	}
}

// NewClient creates a client with the default retry configuration.
func NewClient(accessToken string) *Client {
	return newClient(accessToken, baseURL, DefaultRetryConfig())
}

// NewClientWithBaseURL creates a client against a custom base URL (tests).
func NewClientWithBaseURL(accessToken, customBaseURL string) *Client {
	return newClient(accessToken, customBaseURL, DefaultRetryConfig())
}

func newClient(accessToken, baseURL string, cfg RetryConfig) *Client {
	log := logging.Logger
	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries
	client.RetryWaitMin = cfg.MinWait
	client.RetryWaitMax = cfg.MaxWait
	client.Logger = &logging.LeveledLogger{}

	// Retry on connection errors, 429, and 5xx only.
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}

	// Honor Retry-After on 429, exponential backoff otherwise.
	client.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					wait := time.Duration(seconds) * time.Second
					log.Info().
						Dur("wait", wait).
						Int("attempt", attemptNum).
						Msg("rate limited, honoring Retry-After")
					return wait
				}
			}
		}
		wait := min * time.Duration(1<<uint(attemptNum))
		if wait > max {
			wait = max
		}
		return wait
	}

	client.RequestLogHook = func(logger retryablehttp.Logger, req *http.Request, retry int) {
		if retry > 0 {
			log.Info().
				Str("url", req.URL.Path).
				Int("attempt", retry+1).
				Msg("retrying request")
		}
	}

	return &Client{
		httpClient:  client,
		accessToken: accessToken,
		baseURL:     baseURL,
	}
}

// WithRetryConfig overrides the retry settings (useful for testing).
func (c *Client) WithRetryConfig(maxRetries int, minWait, maxWait time.Duration) *Client {
	c.httpClient.RetryMax = maxRetries
	c.httpClient.RetryWaitMin = minWait
	c.httpClient.RetryWaitMax = maxWait
	return c
}

// PageResult reports the outcome of one fetched page.
type PageResult struct {
	Page         int
	Fetched      int
	TotalFetched int
}

// ProgressCallback is called after each page is fetched.
type ProgressCallback func(result PageResult)

// FetchActivitiesSince fetches all activities that started after the given
// timestamp, following pagination until an empty page. Pages are keyed by
// page number and the fixed `after` epoch, so retried requests are
// idempotent. Returns ErrTooManyPages if the safety bound is hit.
func (c *Client) FetchActivitiesSince(ctx context.Context, since time.Time, progress ProgressCallback) ([]RawActivity, error) {
	var all []RawActivity
	afterEpoch := since.Unix()

	for page := 1; ; page++ {
		if page > maxPages {
			return all, ErrTooManyPages
		}

		activities, err := c.fetchActivitiesPage(ctx, page, afterEpoch)
		if err != nil {
			return all, err
		}

		all = append(all, activities...)
		if progress != nil {
			progress(PageResult{Page: page, Fetched: len(activities), TotalFetched: len(all)})
		}

		if len(activities) == 0 {
			break
		}
	}

	return all, nil
}

func (c *Client) fetchActivitiesPage(ctx context.Context, page int, after int64) ([]RawActivity, error) {
	url := fmt.Sprintf("%s/athlete/activities?page=%d&per_page=%d", c.baseURL, page, perPage)
	if after > 0 {
		url += fmt.Sprintf("&after=%d", after)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Retries exhausted
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var activities []RawActivity
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return activities, nil
}
