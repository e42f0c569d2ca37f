// Package fetch retrieves the raw season data from the fantasy API.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error retrieving data from %s, status code: %d", e.URL, e.Code)
}

// ClientConfig configures the API client.
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Workers           int
	Cache             Cache
	CacheTTL          time.Duration
	HTTPClient        *http.Client
}

// Client talks to the fantasy API. Every request is paced by a rate
// limiter and runs through a circuit breaker.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	cache    Cache
	cacheTTL time.Duration
	workers  int
	log      logrus.FieldLogger
}

func NewClient(cfg ClientConfig, log logrus.FieldLogger) *Client {
	log = log.WithField("component", "fetch")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 6
	}
	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	settings := gobreaker.Settings{
		Name:    "fantasy-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			// A 4xx is the API answering; only transport and 5xx count.
			if se, ok := err.(*StatusError); ok {
				return se.Code < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &Client{
		baseURL:  baseURL,
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		workers:  workers,
		log:      log,
	}
}

// getJSON fetches baseURL+path and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.cache != nil {
		if b, ok, err := c.cache.Get(ctx, path); err != nil {
			c.log.WithError(err).WithField("path", path).Warn("cache read failed")
		} else if ok {
			return b, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, c.baseURL+path)
	})
	if err != nil {
		return nil, err
	}
	body := out.([]byte)

	if c.cache != nil {
		if err := c.cache.Set(ctx, path, body, c.cacheTTL); err != nil {
			c.log.WithError(err).WithField("path", path).Warn("cache write failed")
		}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
