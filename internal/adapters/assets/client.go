// internal/adapters/assets/client.go
package assets

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_recs/internal/adapters/observability"
)

// maxImageBytes caps a single download; booking sites occasionally serve
// multi-megabyte originals.
const maxImageBytes = 20 << 20

var (
	ErrNotFound  = errors.New("assets: not found")
	ErrForbidden = errors.New("assets: forbidden")
	ErrTooLarge  = errors.New("assets: image too large")
)

// Client downloads raw image bytes. One Client is shared by every build so
// the limiter bounds outbound traffic process-wide.
//
// Connections to loopback, private, link-local and other internal addresses
// are refused unless AllowPrivateNetworks or TrustHost says otherwise.
type Client struct {
	hc       *http.Client
	rl       *rate.Limiter
	guard    *dialGuard
	maxTries int
}

func NewClient(timeout time.Duration, rps, maxTries int) *Client {
	if rps <= 0 {
		rps = 5
	}
	if maxTries <= 0 {
		maxTries = 1
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	guard := newDialGuard()
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = guard.dialContext
	return &Client{
		hc:       &http.Client{Timeout: timeout, Transport: tr},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		guard:    guard,
		maxTries: maxTries,
	}
}

// AllowPrivateNetworks turns the address guard off, for local development
// and tests against loopback servers.
func (c *Client) AllowPrivateNetworks() *Client {
	c.guard.mu.Lock()
	c.guard.allowPrivate = true
	c.guard.mu.Unlock()
	return c
}

// TrustHost exempts the host of rawURL from the address guard. Used for the
// operator-configured proxy base, which may live on a private network.
func (c *Client) TrustHost(rawURL string) *Client {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return c
	}
	c.guard.mu.Lock()
	c.guard.trusted[hostPort(u)] = true
	c.guard.mu.Unlock()
	return c
}

// Fetch performs a rate-limited GET and returns the body and its content
// type. 429 and transient 5xx are retried within maxTries, honouring
// Retry-After when provided. service labels the metrics ("proxy"/"direct").
func (c *Client) Fetch(ctx context.Context, service, url string) ([]byte, string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, "", err
	}

	var lastErr error
	for i := 0; i < c.maxTries; i++ {
		last := i == c.maxTries-1

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("Accept", "image/avif,image/webp,image/png,image/jpeg,image/*;q=0.8")
		req.Header.Set("User-Agent", "hotel-recs/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, "image", 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			if errors.Is(err, ErrBlockedAddress) {
				return nil, "", ErrBlockedAddress
			}
			lastErr = err
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", lastErr
		}
		observability.ObserveExternal(service, "image", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			body, err := readLimited(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, "", err
			}
			return body, resp.Header.Get("Content-Type"), nil

		case http.StatusNotFound, http.StatusGone:
			resp.Body.Close()
			return nil, "", ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return nil, "", ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			return nil, "", lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return nil, "", fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return nil, "", lastErr
}

func readLimited(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxImageBytes {
		return nil, ErrTooLarge
	}
	return b, nil
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

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
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

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
