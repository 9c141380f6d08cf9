package observer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/screening-engine/internal/domain"
)

// Fanout delivers each evaluation to every registered observer concurrently.
// A failing observer never prevents delivery to the others.
type Fanout struct {
	logger    *logrus.Logger
	observers []domain.EvaluationObserver
}

// NewFanout creates a fan-out over observers, skipping nil entries.
func NewFanout(logger *logrus.Logger, observers ...domain.EvaluationObserver) *Fanout {
	f := &Fanout{logger: logger}
	for _, o := range observers {
		if o != nil {
			f.observers = append(f.observers, o)
		}
	}
	return f
}

// Add registers another observer.
func (f *Fanout) Add(o domain.EvaluationObserver) {
	if o != nil {
		f.observers = append(f.observers, o)
	}
}

// Len returns the number of registered observers.
func (f *Fanout) Len() int {
	return len(f.observers)
}

// Name implements domain.EvaluationObserver.
func (f *Fanout) Name() string {
	return "fanout"
}

// ObserveEvaluation implements domain.EvaluationObserver. All failures are
// logged and joined into the returned error.
func (f *Fanout) ObserveEvaluation(ctx context.Context, result *domain.EvaluationResult) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for _, o := range f.observers {
		g.Go(func() error {
			if err := o.ObserveEvaluation(ctx, result); err != nil {
				f.logger.WithFields(logrus.Fields{
					"observer":      o.Name(),
					"evaluation_id": result.ID,
					"error":         err,
				}).Warn("Observer failed")

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", o.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
