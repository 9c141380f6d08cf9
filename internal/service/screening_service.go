package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/screening-engine/internal/domain"
)

var (
	ErrBatchTooLarge     = errors.New("batch exceeds maximum size")
	ErrStatusUnsupported = errors.New("status repository not configured")
)

// RequestOptions are the per-request knobs exposed by the surfaces.
type RequestOptions struct {
	PatientID       string
	CollapseByTitle bool
}

// BatchItem is the outcome for one entry of a batch.
type BatchItem struct {
	Index  int                      `json:"index"`
	Result *domain.EvaluationResult `json:"result,omitempty"`
	Error  error                    `json:"-"`
}

// ScreeningService orchestrates the pure engine with the collaborators that
// live outside it: result cache, recommendation statuses and evaluation
// observers. Every collaborator is optional and none can fail an evaluation.
type ScreeningService struct {
	logger   *logrus.Logger
	engine   *Engine
	cache    *ResultCache
	statuses domain.StatusProvider
	observer domain.EvaluationObserver
	config   domain.EngineConfig

	inflight sync.WaitGroup
}

// NewScreeningService creates a new screening service. cache, statuses and
// observer may be nil.
func NewScreeningService(
	logger *logrus.Logger,
	engine *Engine,
	cache *ResultCache,
	statuses domain.StatusProvider,
	observer domain.EvaluationObserver,
	config domain.EngineConfig,
) *ScreeningService {
	if config.BatchConcurrency <= 0 {
		config.BatchConcurrency = 4
	}
	if config.BatchMaxSize <= 0 {
		config.BatchMaxSize = 100
	}
	if config.ObserverTimeout <= 0 {
		config.ObserverTimeout = 5 * time.Second
	}
	return &ScreeningService{
		logger:   logger,
		engine:   engine,
		cache:    cache,
		statuses: statuses,
		observer: observer,
		config:   config,
	}
}

// Evaluate runs one evaluation. Only a *domain.ValidationError is returned
// as an error; cache, status and observer failures are logged.
func (s *ScreeningService) Evaluate(ctx context.Context, raw map[string]any, opts RequestOptions) (*domain.EvaluationResult, error) {
	startTime := time.Now()

	profile, err := s.engine.Normalize(raw)
	if err != nil {
		s.logger.WithError(err).Debug("Rejected evaluation input")
		return nil, err
	}
	if opts.PatientID != "" {
		profile.PatientID = opts.PatientID
	}

	pipelineOpts := EvaluateOptions{
		Statuses:        s.lookupStatuses(ctx, profile.PatientID),
		CollapseByTitle: opts.CollapseByTitle,
	}

	result, cached := s.fromCache(ctx, profile, pipelineOpts)
	if !cached {
		result = s.engine.EvaluateProfile(ctx, profile, pipelineOpts)
		s.toCache(ctx, profile, pipelineOpts, result)
	}

	s.logger.WithFields(logrus.Fields{
		"evaluation_id":   result.ID,
		"patient_id":      result.PatientID,
		"recommendations": len(result.Recommendations),
		"risk_success":    result.Risk.Success,
		"risk_category":   result.Risk.Category,
		"cached":          result.Cached,
		"processing_time": time.Since(startTime),
	}).Info("Screening evaluation completed")

	s.notify(ctx, result)
	return result, nil
}

// EvaluateBatch evaluates entries with bounded concurrency. Per-entry
// validation errors are reported in the item and do not stop the batch.
func (s *ScreeningService) EvaluateBatch(ctx context.Context, raws []map[string]any, opts RequestOptions) ([]BatchItem, error) {
	if len(raws) > s.config.BatchMaxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(raws), s.config.BatchMaxSize)
	}

	items := make([]BatchItem, len(raws))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchConcurrency)

	for i, raw := range raws {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i] = BatchItem{Index: i, Error: err}
				return nil
			}
			itemOpts := RequestOptions{CollapseByTitle: opts.CollapseByTitle}
			result, err := s.Evaluate(gctx, raw, itemOpts)
			items[i] = BatchItem{Index: i, Result: result, Error: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.WithField("batch_size", len(raws)).Info("Batch evaluation completed")
	return items, nil
}

// Rules lists the rule set.
func (s *ScreeningService) Rules() []RuleInfo {
	return s.engine.Rules()
}

// SetStatus records a workflow status when the status provider can write.
func (s *ScreeningService) SetStatus(ctx context.Context, patientID, recommendationKey, status string) error {
	writer, ok := s.statuses.(domain.StatusWriter)
	if !ok || writer == nil {
		return ErrStatusUnsupported
	}
	if err := writer.SetStatus(ctx, patientID, recommendationKey, status); err != nil {
		return fmt.Errorf("failed to set recommendation status: %w", err)
	}
	return nil
}

// StatusEnabled reports whether statuses can be written.
func (s *ScreeningService) StatusEnabled() bool {
	_, ok := s.statuses.(domain.StatusWriter)
	return ok
}

// CacheStats returns the result cache statistics, if a cache is configured.
func (s *ScreeningService) CacheStats() (CacheStats, bool) {
	if s.cache == nil {
		return CacheStats{}, false
	}
	return s.cache.GetStats(), true
}

// Wait blocks until in-flight observer notifications finish.
func (s *ScreeningService) Wait() {
	s.inflight.Wait()
}

func (s *ScreeningService) lookupStatuses(ctx context.Context, patientID string) map[string]string {
	if s.statuses == nil || patientID == "" {
		return nil
	}
	statuses, err := s.statuses.Statuses(ctx, patientID)
	if err != nil {
		s.logger.WithError(err).WithField("patient_id", patientID).Warn("Failed to load recommendation statuses")
		return nil
	}
	return statuses
}

func (s *ScreeningService) fromCache(ctx context.Context, profile domain.PatientProfile, opts EvaluateOptions) (*domain.EvaluationResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	key, err := CacheKey(profile, opts)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to compute cache key")
		return nil, false
	}
	hit, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	result := *hit
	result.ID = uuid.New().String()
	result.EvaluatedAt = time.Now().UTC()
	result.Duration = 0
	result.Cached = true
	return &result, true
}

func (s *ScreeningService) toCache(ctx context.Context, profile domain.PatientProfile, opts EvaluateOptions, result *domain.EvaluationResult) {
	if s.cache == nil {
		return
	}
	key, err := CacheKey(profile, opts)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to compute cache key")
		return
	}
	s.cache.Set(ctx, key, result)
}

// notify hands the result to the observer without waiting for it.
func (s *ScreeningService) notify(ctx context.Context, result *domain.EvaluationResult) {
	if s.observer == nil {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		octx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ObserverTimeout)
		defer cancel()
		if err := s.observer.ObserveEvaluation(octx, result); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"observer":      s.observer.Name(),
				"evaluation_id": result.ID,
			}).Warn("Evaluation observer failed")
		}
	}()
}
