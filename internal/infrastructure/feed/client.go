package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/watchlens/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxRetries is the number of attempts made for one export
	DefaultMaxRetries = 3
	// maxBodyBytes caps the size of a single export
	maxBodyBytes = 64 << 20
)

// ClientConfig holds configuration for the feed client
type ClientConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
	MaxRetries        int
	Logger            *zerolog.Logger
}

// Client fetches raw listing exports written by the external scrapers
type Client struct {
	httpClient  *http.Client
	userAgent   string
	maxRetries  int
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      zerolog.Logger
}

// NewClient creates a new feed client
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := config.Burst
	if burst <= 0 {
		burst = 5
	}
	retries := config.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = "WatchLens/1.0"
	}
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent:   userAgent,
		maxRetries:  retries,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), burst),
		backoff:     exponentialBackoff,
		logger:      logger,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFeedFailure, err)
	}

	return resp, nil
}

// FetchRecords downloads and decodes the export at sourceURL.
// Transport errors, 429 and 5xx responses are retried with exponential
// backoff; other non-200 responses fail immediately.
func (c *Client) FetchRecords(ctx context.Context, sourceURL string) ([]domain.RawRecord, error) {
	logger := c.logger.With().Str("source", sourceURL).Logger()

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, sourceURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn().Err(err).Int("attempt", attempt).Msg("feed request failed")
			lastErr = err
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrFeedFailure, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("%w: status %d", domain.ErrFeedFailure, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("feed returned error status")
			continue
		}

		records, err := DecodeRecords(body)
		if err != nil {
			return nil, err
		}

		logger.Debug().Int("records", len(records)).Msg("feed fetched")
		return records, nil
	}

	logger.Error().Err(lastErr).Msg("all retries failed")
	return nil, lastErr
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
