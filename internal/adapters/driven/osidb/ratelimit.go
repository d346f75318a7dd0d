package osidb

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/aegislabs/aegis-cli/internal/core/domain"
)

const (
	// defaultRequestsPerSecond is the proactive throttle rate. OSIDB
	// deployments are internal services without published quotas, so
	// stay well below anything that would trip server-side limits.
	defaultRequestsPerSecond = 2.0

	// headerRetryAfter is the retry-after header (seconds).
	headerRetryAfter = "Retry-After"
)

// rateLimiter throttles requests proactively and reacts to 429 responses.
type rateLimiter struct {
	bucket *rate.Limiter
}

func newRateLimiter(requestsPerSecond float64) *rateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	return &rateLimiter{
		bucket: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

// wait blocks until it's safe to make a request.
func (r *rateLimiter) wait(ctx context.Context) error {
	return r.bucket.Wait(ctx)
}

// check inspects a response for server-side throttling. On 429 it returns
// domain.ErrRateLimited carrying the retry delay when the server sent one.
func (r *rateLimiter) check(resp *http.Response) error {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return nil
	}

	retryAfter := time.Duration(0)
	if header := resp.Header.Get(headerRetryAfter); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			retryAfter = time.Duration(seconds) * time.Second
		}
	}

	if retryAfter > 0 {
		return &RateLimitError{RetryAfter: retryAfter}
	}
	return domain.ErrRateLimited
}

// RateLimitError reports server-side throttling with a retry hint.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "osidb: rate limited, retry after " + e.RetryAfter.String()
}

// Unwrap allows errors.Is(err, domain.ErrRateLimited).
func (e *RateLimitError) Unwrap() error {
	return domain.ErrRateLimited
}
