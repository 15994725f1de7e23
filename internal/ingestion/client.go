package ingestion

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	logx "github.com/anime-mvp/assistant/pkg/logger"
)

const userAgent = "anime-assistant-pipeline/1.0"

// ClientConfig configures the Jikan API client.
type ClientConfig struct {
	BaseURL        string  `envconfig:"JIKAN_BASE_URL" default:"https://api.jikan.moe/v4"`
	RequestsPerSec float64 `envconfig:"JIKAN_RATE_LIMIT" default:"1.0"`
	MaxRetries     int     `envconfig:"JIKAN_MAX_RETRIES" default:"3"`
	TimeoutSeconds int     `envconfig:"JIKAN_TIMEOUT" default:"30"`
}

// Client fetches from a Jikan-style API with rate limiting and retries.
// 429 responses honor Retry-After, other 4xx are non-retryable, 5xx and
// transport errors back off exponentially up to MaxRetries attempts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	baseDelay  time.Duration
}

// NewClient builds a Jikan API client from config.
func NewClient(cfg ClientConfig) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1.0
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
		baseDelay:  time.Duration(float64(time.Second) / rps),
	}
}

// Get fetches one endpoint and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, endpoint string) ([]byte, error) {
	url := c.baseURL + "/" + endpoint

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		logx.Debug().Str("url", url).Int("attempt", attempt+1).Msg("jikan request")

		body, retryable, err := c.do(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}

		if attempt < c.maxRetries-1 {
			wait := c.baseDelay * time.Duration(1<<attempt)
			logx.Info().Str("url", url).Dur("wait", wait).Msg("retrying after backoff")
			if err := sleepCtx(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("fetch %s after %d attempts: %w", url, c.maxRetries, lastErr)
}

// do performs one request. The second return reports whether the failure is
// retryable.
func (c *Client) do(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, err
		}
		return body, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := retryAfter(resp, 60*time.Second)
		logx.Warn().Str("url", url).Dur("wait", wait).Msg("rate limited by API")
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, false, err
		}
		return nil, true, fmt.Errorf("rate limited (429)")

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		logx.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("client error, not retrying")
		return nil, false, fmt.Errorf("client error %d for %s", resp.StatusCode, url)

	default:
		logx.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("server error, will retry")
		return nil, true, fmt.Errorf("server error %d for %s", resp.StatusCode, url)
	}
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ================ Endpoint helpers ================

func (c *Client) Anime(ctx context.Context, animeID int) ([]byte, error) {
	return c.Get(ctx, fmt.Sprintf("anime/%d", animeID))
}

func (c *Client) AnimeFull(ctx context.Context, animeID int) ([]byte, error) {
	return c.Get(ctx, fmt.Sprintf("anime/%d/full", animeID))
}

func (c *Client) AnimeStatistics(ctx context.Context, animeID int) ([]byte, error) {
	return c.Get(ctx, fmt.Sprintf("anime/%d/statistics", animeID))
}

func (c *Client) AnimeRecommendations(ctx context.Context, animeID int) ([]byte, error) {
	return c.Get(ctx, fmt.Sprintf("anime/%d/recommendations", animeID))
}

func (c *Client) TopAnime(ctx context.Context, page int) ([]byte, error) {
	return c.Get(ctx, fmt.Sprintf("top/anime?page=%d&limit=25", page))
}

func (c *Client) Genres(ctx context.Context) ([]byte, error) {
	return c.Get(ctx, "genres/anime")
}

func (c *Client) SeasonalAnime(ctx context.Context, year int, season string, page int) ([]byte, error) {
	return c.Get(ctx, fmt.Sprintf("seasons/%d/%s?page=%d", year, season, page))
}
