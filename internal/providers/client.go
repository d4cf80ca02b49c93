// Package providers implements the external HTTP boundaries: geocoding,
// elevation and weather lookups. Every provider shares the same protection
// stack: a client-side rate limiter, a circuit breaker and bounded retries
// with backoff for transient failures.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrTransientFetch marks network-level failures that were retried and still
// failed; callers typically downgrade these rather than abort.
var ErrTransientFetch = errors.New("providers: transient fetch failure")

const maxRetries = 3

type Options struct {
	Timeout          time.Duration
	RequestsPerSec   float64
	BreakerThreshold int
}

func (o *Options) fillDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RequestsPerSec <= 0 {
		o.RequestsPerSec = 1.0
	}
	if o.BreakerThreshold <= 0 {
		o.BreakerThreshold = 5
	}
}

// client is the shared protected HTTP GET machinery used by all providers.
type client struct {
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

func newClient(name string, opts Options, log *logrus.Logger) *client {
	opts.fillDefaults()
	entry := log.WithField("component", "providers").WithField("provider", name)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(opts.BreakerThreshold),
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			entry.WithFields(logrus.Fields{
				"from": from.String(),
				"to":   to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &client{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     entry,
	}
}

// getJSON fetches base+query and decodes the JSON body into out, retrying
// transient failures with linear backoff.
func (c *client) getJSON(ctx context.Context, base string, query url.Values, out interface{}) error {
	u := base
	if len(query) > 0 {
		u = base + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetch(ctx, u)
		})
		if err != nil {
			lastErr = err
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				break
			}
			c.log.WithError(err).WithField("attempt", attempt+1).Warn("Request failed")
			continue
		}
		if err := json.Unmarshal(body.([]byte), out); err != nil {
			return fmt.Errorf("providers: decoding %s: %w", base, err)
		}
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrTransientFetch, base, lastErr)
}

func (c *client) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "vpfm7/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
