package checkup

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
)

// Recorder is an evaluation observer that persists a checkup per evaluation.
type Recorder struct {
	store  Store
	logger *logrus.Logger
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, logger *logrus.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Name implements domain.EvaluationObserver.
func (r *Recorder) Name() string {
	return "checkup_recorder"
}

// ObserveEvaluation implements domain.EvaluationObserver.
func (r *Recorder) ObserveEvaluation(ctx context.Context, result *domain.EvaluationResult) error {
	c := FromResult(result)
	if err := r.store.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to record checkup %s: %w", result.ID, err)
	}

	r.logger.WithFields(logrus.Fields{
		"checkup_id":    c.ID,
		"evaluation_id": c.EvaluationID,
		"patient_id":    c.PatientID,
	}).Debug("Recorded checkup")
	return nil
}
