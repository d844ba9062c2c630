package cache

import (
	"errors"
	"log"
	"sync"
	"time"
)

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Name             string        `json:"name"`
	MaxFailures      int           `json:"max_failures"`
	OpenTimeout      time.Duration `json:"open_timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Name:             "redis",
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker stops calling a failing dependency for OpenTimeout after
// MaxFailures consecutive errors, then lets HalfOpenMaxCalls trial calls
// through before closing again.
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	state    BreakerState
	failures int
	trials   int
	openedAt time.Time
	now      func() time.Time
}

func NewCircuitBreaker(config *BreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	cfg := *config
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 1
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrBreakerOpen
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.OpenTimeout {
			return false
		}
		cb.transition(BreakerHalfOpen)
		cb.trials = 1
		return true
	case BreakerHalfOpen:
		if cb.trials >= cb.cfg.HalfOpenMaxCalls {
			return false
		}
		cb.trials++
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	switch cb.state {
	case BreakerHalfOpen:
		cb.trip()
	case BreakerClosed:
		if cb.failures >= cb.cfg.MaxFailures {
			cb.trip()
		}
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	if cb.state == BreakerHalfOpen {
		cb.transition(BreakerClosed)
		cb.trials = 0
	}
}

// trip must be called with mu held.
func (cb *CircuitBreaker) trip() {
	cb.transition(BreakerOpen)
	cb.openedAt = cb.now()
	cb.trials = 0
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	if cb.state == to {
		return
	}
	log.Printf("[cache] breaker %s: %s -> %s", cb.cfg.Name, cb.state, to)
	cb.state = to
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":           cb.state.String(),
		"failures":        cb.failures,
		"max_failures":    cb.cfg.MaxFailures,
		"open_timeout_ms": cb.cfg.OpenTimeout.Milliseconds(),
	}
}
