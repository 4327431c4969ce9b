package goelastic

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	breakerConsecutiveFailures = 5
	breakerOpenTimeout         = 30 * time.Second
)

var errServerStatus = errors.New("cluster answered with a server error")

// breakerRoundTripper stops sending requests to a cluster that keeps failing
// and lets a single probe through once the open timeout elapsed.
type breakerRoundTripper struct {
	next http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

func newBreakerRoundTripper(next http.RoundTripper, name string) *breakerRoundTripper {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("circuit breaker for %v changed from %v to %v", name, from, to)
		},
	}
	return &breakerRoundTripper{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

func (b *breakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	res, err := b.cb.Execute(func() (*http.Response, error) {
		res, err := b.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return res, fmt.Errorf("%w: %v", errServerStatus, res.StatusCode)
		}
		return res, nil
	})
	if errors.Is(err, errServerStatus) {
		// the response is still handed to the caller, only the breaker counts it
		return res, nil
	}
	return res, err
}

func (b *breakerRoundTripper) state() gobreaker.State {
	return b.cb.State()
}

func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
