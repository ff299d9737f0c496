package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/facebookgo/clock"
	circuit "github.com/rubyist/circuitbreaker"
)

// DefaultBreakerThreshold is the number of consecutive transport failures
// that opens a host's breaker.
const DefaultBreakerThreshold = 5

// CircuitBreakerProber wraps a prober with per-host circuit breakers.
// Only transport failures count against a host; any HTTP status is an answer.
type CircuitBreakerProber struct {
	prober    ProberInterface
	threshold int64
	breakers  map[string]*circuit.Breaker
	mu        sync.RWMutex

	// clock drives breaker backoff; nil means wall time.
	clock clock.Clock
}

// NewCircuitBreakerProber creates a new circuit breaker wrapper for a prober.
func NewCircuitBreakerProber(p ProberInterface, threshold int) *CircuitBreakerProber {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	return &CircuitBreakerProber{
		prober:    p,
		threshold: int64(threshold),
		breakers:  make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given host.
func (cbp *CircuitBreakerProber) getBreaker(host string) *circuit.Breaker {
	cbp.mu.RLock()
	breaker, exists := cbp.breakers[host]
	cbp.mu.RUnlock()

	if exists {
		return breaker
	}

	cbp.mu.Lock()
	defer cbp.mu.Unlock()

	if breaker, exists := cbp.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		Clock:      cbp.clock,
		ShouldTrip: circuit.ConsecutiveTripFunc(cbp.threshold),
	})

	cbp.breakers[host] = breaker
	return breaker
}

// Head wraps the underlying prober's Head with circuit breaker logic.
func (cbp *CircuitBreakerProber) Head(ctx context.Context, headURL string) (int, error) {
	host := extractHost(headURL)
	breaker := cbp.getBreaker(host)

	var (
		status  int
		headErr error
	)
	err := breaker.Call(func() error {
		status, headErr = cbp.prober.Head(ctx, headURL)
		if headErr != nil && ctx.Err() != nil {
			// the caller gave up; that says nothing about the host
			return nil
		}
		return headErr
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return 0, fmt.Errorf("circuit breaker open for host %s: %w", host, ErrHostUnavailable)
	}
	if headErr != nil {
		return 0, headErr
	}
	if err != nil {
		return 0, err
	}

	return status, nil
}

// Exists reports whether headURL answers with status 200. An open breaker
// answers false without touching the network.
func (cbp *CircuitBreakerProber) Exists(ctx context.Context, headURL string) bool {
	status, err := cbp.Head(ctx, headURL)
	return err == nil && status == http.StatusOK
}

// extractHost extracts the host from a URL for circuit breaker grouping.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// BreakerStates returns the current state of each host's breaker.
func (cbp *CircuitBreakerProber) BreakerStates() map[string]string {
	cbp.mu.RLock()
	defer cbp.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range cbp.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
