package github

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Rate limit headers returned by the GitHub API
const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
	rateLimitIndicator  = "rate limit"
)

// DefaultFallbackWait is used when a rate-limited response carries no usable reset time
const DefaultFallbackWait = 30 * time.Second

// RateLimitState is the rate limit information attached to a single response
type RateLimitState struct {
	// Remaining is the number of requests left in the current window
	Remaining int

	// HasRemaining is false when the remaining header was absent or unparsable
	HasRemaining bool

	// Reset is when the window resets; zero if unknown
	Reset time.Time
}

// Exhausted reports whether the remaining budget is known to be spent
func (s RateLimitState) Exhausted() bool {
	return s.HasRemaining && s.Remaining <= 0
}

// parseRateLimit reads the rate limit headers of a response
func parseRateLimit(h http.Header) RateLimitState {
	var state RateLimitState

	if v := strings.TrimSpace(h.Get(headerRateRemaining)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			state.Remaining = n
			state.HasRemaining = true
		}
	}

	if v := strings.TrimSpace(h.Get(headerRateReset)); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			state.Reset = time.Unix(epoch, 0)
		}
	}

	return state
}

// isRateLimited reports whether a response signals rate limiting, either by
// an exhausted budget or by a 403 whose body mentions the rate limit
func isRateLimited(resp *Response) bool {
	if resp.RateLimit.Exhausted() {
		return true
	}
	if resp.StatusCode == http.StatusForbidden {
		return strings.Contains(strings.ToLower(string(resp.Body)), rateLimitIndicator)
	}
	return false
}

// rateLimitWait returns how long to wait before the retry: until one second
// past the reset time when known, otherwise the fallback. Never negative.
func rateLimitWait(state RateLimitState, now time.Time, fallback time.Duration) time.Duration {
	if state.Reset.IsZero() {
		return fallback
	}
	wait := state.Reset.Sub(now) + time.Second
	if wait < 0 {
		return 0
	}
	return wait
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
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
