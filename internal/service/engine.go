package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
)

// EvaluateOptions tunes one pipeline run.
type EvaluateOptions struct {
	// Statuses are workflow markers keyed by strict identity, stamped onto
	// candidates before aggregation.
	Statuses map[string]string
	// CollapseByTitle applies the title-only identity after the strict merge.
	CollapseByTitle bool
}

// Engine runs the synchronous pipeline
// normalize → estimate risk → evaluate rules → aggregate → annotate.
// It holds no mutable state and never touches observers, caches or stores.
type Engine struct {
	logger     *logrus.Logger
	normalizer *domain.Normalizer
	estimator  *RiskEstimator
	rules      *ScreeningRuleEngine
	annotator  *ReferenceAnnotator
}

// NewEngine creates a new engine with the default alias table
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{
		logger:     logger,
		normalizer: domain.NewNormalizer(nil),
		estimator:  NewRiskEstimator(logger),
		rules:      NewScreeningRuleEngine(logger),
		annotator:  NewReferenceAnnotator(),
	}
}

// Normalize exposes the first pipeline stage.
func (e *Engine) Normalize(raw map[string]any) (domain.PatientProfile, error) {
	return e.normalizer.Normalize(raw)
}

// Evaluate normalizes raw and runs the rest of the pipeline. The only error
// is a *domain.ValidationError for missing or unparseable age or sex.
func (e *Engine) Evaluate(ctx context.Context, raw map[string]any) (*domain.EvaluationResult, error) {
	profile, err := e.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return e.EvaluateProfile(ctx, profile, EvaluateOptions{}), nil
}

// EvaluateProfile runs the pipeline from an already normalized profile.
func (e *Engine) EvaluateProfile(_ context.Context, profile domain.PatientProfile, opts EvaluateOptions) *domain.EvaluationResult {
	start := time.Now()

	risk := e.estimator.Estimate(profile)
	candidates := e.rules.EvaluateAllRules(profile, risk.EffectiveCategory())
	candidates = ApplyStatuses(candidates, opts.Statuses)

	final := Aggregate(candidates, StrictIdentity)
	if opts.CollapseByTitle {
		final = Aggregate(final, TitleIdentity)
	}
	final = e.annotator.Annotate(final)

	result := &domain.EvaluationResult{
		ID:              uuid.New().String(),
		PatientID:       profile.PatientID,
		Profile:         profile,
		Risk:            risk,
		Recommendations: final,
		EvaluatedAt:     start.UTC(),
		Duration:        time.Since(start),
	}

	e.logger.WithFields(logrus.Fields{
		"evaluation_id":   result.ID,
		"candidates":      len(candidates),
		"recommendations": len(final),
		"risk_success":    risk.Success,
		"risk_category":   risk.Category,
	}).Debug("Pipeline evaluation completed")

	return result
}

// Rules lists the rule set in evaluation order.
func (e *Engine) Rules() []RuleInfo {
	return e.rules.Rules()
}

// RuleEngine exposes the rule engine for single-rule evaluation.
func (e *Engine) RuleEngine() *ScreeningRuleEngine {
	return e.rules
}
