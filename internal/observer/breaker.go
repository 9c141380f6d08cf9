// Package observer composes evaluation observers: fan-out to several sinks
// and circuit breaking around a flaky one.
package observer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/screening-engine/internal/domain"
)

// BreakerConfig represents circuit breaker configuration
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig trips after 3 requests with at least 60% failures.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  5,
		Interval:     30 * time.Second,
		Timeout:      60 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Breaker wraps an observer in a circuit breaker. While open, evaluations
// are dropped for that sink with gobreaker.ErrOpenState.
type Breaker struct {
	inner   domain.EvaluationObserver
	breaker *gobreaker.CircuitBreaker
}

// NewBreaker wraps inner.
func NewBreaker(inner domain.EvaluationObserver, config BreakerConfig, logger *logrus.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests || counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"observer": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("Observer circuit breaker changed state")
		},
	}

	return &Breaker{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Name implements domain.EvaluationObserver.
func (b *Breaker) Name() string {
	return b.inner.Name()
}

// ObserveEvaluation implements domain.EvaluationObserver.
func (b *Breaker) ObserveEvaluation(ctx context.Context, result *domain.EvaluationResult) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.inner.ObserveEvaluation(ctx, result)
	})
	return err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
