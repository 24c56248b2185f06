package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Client wraps an http.Client with a circuit breaker and a client-side
// rate limiter. The public data APIs the providers call enforce hourly
// quotas; the limiter keeps us under them and the breaker stops
// hammering an upstream that is already failing.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// ClientConfig tunes one upstream client. Zero values fall back to
// sane defaults.
type ClientConfig struct {
	Name            string
	Timeout         time.Duration
	RequestsPerHour int
	MaxFailures     uint32
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerHour <= 0 {
		cfg.RequestsPerHour = 1000
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	})

	perSecond := rate.Limit(float64(cfg.RequestsPerHour) / 3600.0)
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		limiter:    rate.NewLimiter(perSecond, cfg.RequestsPerHour/10+1),
	}
}

// GetJSON performs a rate-limited, breaker-guarded GET and decodes the
// JSON response into out.
func (c *Client) GetJSON(ctx context.Context, baseURL string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := baseURL
	if len(params) > 0 {
		u = baseURL + "?" + params.Encode()
	}

	body, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data, 200))
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body.([]byte), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
