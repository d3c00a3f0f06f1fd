package source

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled is wrapped by requests that could not get a limiter token
// before their context ended.
var ErrThrottled = errors.New("throttled by local rate limit")

// rateLimitedTransport waits for a limiter token before each request so one
// platform is never hit faster than its configured rate.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	return t.base.RoundTrip(req)
}

// NewHTTPClient returns a client for a single platform adapter. rps <= 0
// disables throttling. Each adapter should get its own client so one
// platform's limiter never delays another.
func NewHTTPClient(timeout time.Duration, rps float64) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		transport = &rateLimitedTransport{
			base:    transport,
			limiter: rate.NewLimiter(rate.Limit(rps), burst),
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
