package rates

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/domain"
)

// Client fetches conversion rates from an HTTP rates provider.
type Client struct {
	base      string
	reference domain.Currency
	hc        *http.Client
	key       string
	rl        *rate.Limiter
}

func New(base, key string, reference domain.Currency, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("rates base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:      strings.TrimRight(base, "/"),
		reference: reference,
		hc:        &http.Client{Timeout: 20 * time.Second},
		key:       key,
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type rateResponse struct {
	Currency string          `json:"currency"`
	Base     string          `json:"base"`
	Rate     decimal.Decimal `json:"rate"`
}

// GetRate returns the value of one unit of c in the reference currency.
// Tries the current endpoint first, then the legacy one.
func (c *Client) GetRate(ctx context.Context, cur domain.Currency) (decimal.Decimal, error) {
	if cur == c.reference {
		return decimal.NewFromInt(1), nil
	}
	candidates := []string{
		fmt.Sprintf("%s/rates/%s?base=%s", c.base, cur, c.reference), // preferred
		fmt.Sprintf("%s/rate/%s?base=%s", c.base, cur, c.reference),  // legacy
	}
	var out rateResponse
	if err := c.getFirst(ctx, candidates, &out); err != nil {
		return decimal.Decimal{}, fmt.Errorf("rate %s: %w", cur, err)
	}
	if out.Base != "" && !strings.EqualFold(out.Base, string(c.reference)) {
		return decimal.Decimal{}, fmt.Errorf("rate %s: quoted against %s, want %s", cur, out.Base, c.reference)
	}
	if !out.Rate.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("rate %s: %w: got %s", cur, ErrBadRate, out.Rate)
	}
	return out.Rate, nil
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("rates: not found")
	ErrUnauthorized = errors.New("rates: unauthorized")
	ErrForbidden    = errors.New("rates: forbidden")
	ErrBadRate      = errors.New("rates: rate must be positive")
)

func (c *Client) getFirst(ctx context.Context, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err // non-404: stop early
		}
		return nil
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-booking/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("rates", "get_rate", 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("rates", "get_rate", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
