// Package fetch is a polite HTTP getter: requests are spaced by a rate
// limiter, retried with exponential backoff and jitter, and guarded by a
// per-host circuit breaker.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/okian/touchline/pkg/logger"
	"github.com/okian/touchline/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultUserAgent       = "touchline/1.0"
	defaultTimeout         = 25 * time.Second
	defaultInterval        = 5 * time.Second
	defaultMaxAttempts     = 3
	defaultBackoffBase     = 5 * time.Second
	defaultBackoffMax      = 60 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 2 * time.Minute
	defaultMaxBody         = 8 << 20
)

// Doer sends HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches documents over HTTP.
type Client struct {
	http            Doer
	userAgent       string
	interval        time.Duration
	maxAttempts     int
	backoffBase     time.Duration
	backoffMax      time.Duration
	breakerFailures uint32
	breakerCooldown time.Duration
	maxBody         int64
	sleep           func(ctx context.Context, d time.Duration) error
	log             logger.Logger

	limiter  *rate.Limiter
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:            &http.Client{Timeout: defaultTimeout},
		userAgent:       defaultUserAgent,
		interval:        defaultInterval,
		maxAttempts:     defaultMaxAttempts,
		backoffBase:     defaultBackoffBase,
		backoffMax:      defaultBackoffMax,
		breakerFailures: defaultBreakerFailures,
		breakerCooldown: defaultBreakerCooldown,
		maxBody:         defaultMaxBody,
		sleep:           sleepCtx,
		log:             logger.Get().Named("fetch"),
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(c)
	}
	limit := rate.Inf
	if c.interval > 0 {
		limit = rate.Every(c.interval)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// Get returns the body of rawURL. Network errors, 429 and 5xx responses are
// retried up to the attempt limit; other statuses fail at once.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	host := u.Host
	cb := c.breaker(host)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("get %s: %w", rawURL, err)
		}

		start := time.Now()
		out, err := cb.Execute(func() (interface{}, error) {
			return c.do(ctx, rawURL)
		})
		metrics.RecordFetchLatency(host, float64(time.Since(start).Milliseconds()))
		if err == nil {
			metrics.RecordFetchAttempt(host, "ok")
			return out.([]byte), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordFetchAttempt(host, "rejected")
			return nil, fmt.Errorf("get %s: %w: %w", rawURL, ErrCircuitOpen, err)
		}
		if !retryable(ctx, err) {
			metrics.RecordFetchAttempt(host, "error")
			return nil, fmt.Errorf("get %s: %w", rawURL, err)
		}

		lastErr = err
		metrics.RecordFetchAttempt(host, "retry")
		if attempt == c.maxAttempts {
			break
		}
		wait := c.backoff(attempt)
		c.log.Warn(ctx, "fetch attempt failed",
			logger.String("url", rawURL),
			logger.Int("attempt", attempt),
			logger.Duration("backoff", wait),
			logger.Error(err))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("get %s: %w", rawURL, err)
		}
	}
	return nil, fmt.Errorf("get %s after %d attempts: %w: %w", rawURL, c.maxAttempts, ErrRetriesExhausted, lastErr)
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, c.maxBody))
		return nil, &StatusError{URL: rawURL, Code: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrBodyTooLarge)
	}
	return body, nil
}

func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	failures := c.breakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// a definite answer from the host is not an outage
			var se *StatusError
			return err == nil || (errors.As(err, &se) && !se.Retryable()) || errors.Is(err, ErrBodyTooLarge)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			c.log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("host", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
	c.breakers[host] = cb
	metrics.UpdateBreakerState(host, int(gobreaker.StateClosed))
	return cb
}

// backoff returns base*2^(attempt-1) capped at the maximum, plus up to half
// of that again as jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << (attempt - 1)
	if d <= 0 || d > c.backoffMax {
		d = c.backoffMax
	}
	if half := int64(d / 2); half > 0 {
		d += time.Duration(rand.Int64N(half)) //nolint:gosec // jitter only
	}
	return d
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return !errors.Is(err, ErrBodyTooLarge)
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

// HostState returns the breaker state of host. Hosts never contacted are
// closed.
func (c *Client) HostState(host string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb.State().String()
	}
	return gobreaker.StateClosed.String()
}
