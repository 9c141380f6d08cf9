package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/screening-engine/internal/domain"
)

// MockStatusStore is a mock implementation of StatusProvider and StatusWriter
type MockStatusStore struct {
	mock.Mock
}

func (m *MockStatusStore) Statuses(ctx context.Context, patientID string) (map[string]string, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockStatusStore) SetStatus(ctx context.Context, patientID, recommendationKey, status string) error {
	args := m.Called(ctx, patientID, recommendationKey, status)
	return args.Error(0)
}

// readOnlyStatuses implements StatusProvider only.
type readOnlyStatuses struct{}

func (readOnlyStatuses) Statuses(context.Context, string) (map[string]string, error) {
	return nil, nil
}

// MockObserver is a mock implementation of EvaluationObserver
type MockObserver struct {
	mock.Mock
}

func (m *MockObserver) Name() string { return "mock" }

func (m *MockObserver) ObserveEvaluation(ctx context.Context, result *domain.EvaluationResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func newTestService(t *testing.T, statuses domain.StatusProvider, observer domain.EvaluationObserver, config domain.EngineConfig) *ScreeningService {
	t.Helper()
	logger := newTestLogger()
	cache, err := NewResultCache(domain.CacheConfig{Size: 16, DefaultTTL: time.Minute}, logger)
	require.NoError(t, err)
	return NewScreeningService(logger, NewEngine(logger), cache, statuses, observer, config)
}

func TestScreeningService_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("Validation_Error", func(t *testing.T) {
		svc := newTestService(t, nil, nil, domain.EngineConfig{})
		_, err := svc.Evaluate(ctx, map[string]any{"sexo": "F"}, RequestOptions{})
		var vErr *domain.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("Cache_Hit", func(t *testing.T) {
		svc := newTestService(t, nil, nil, domain.EngineConfig{})

		first, err := svc.Evaluate(ctx, boundaryInput(), RequestOptions{})
		require.NoError(t, err)
		assert.False(t, first.Cached)

		second, err := svc.Evaluate(ctx, boundaryInput(), RequestOptions{})
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, first.Recommendations, second.Recommendations)

		stats, ok := svc.CacheStats()
		require.True(t, ok)
		assert.Equal(t, int64(1), stats.MemoryHits)
		assert.Equal(t, int64(2), stats.TotalRequests)
	})

	t.Run("Statuses_Applied", func(t *testing.T) {
		store := new(MockStatusStore)
		key := domain.StrictKey("Perfil lipídico", domain.LAB, citeLipids)
		store.On("Statuses", mock.Anything, "p-1").Return(map[string]string{key: "done"}, nil)

		svc := newTestService(t, store, nil, domain.EngineConfig{})
		result, err := svc.Evaluate(ctx, boundaryInput(), RequestOptions{PatientID: "p-1"})
		require.NoError(t, err)
		assert.Equal(t, "p-1", result.PatientID)

		var status string
		for _, r := range result.Recommendations {
			if r.StrictKey() == key {
				status = r.Status
			}
		}
		assert.Equal(t, "done", status)
		store.AssertExpectations(t)
	})

	t.Run("Status_Failure_Is_Ignored", func(t *testing.T) {
		store := new(MockStatusStore)
		store.On("Statuses", mock.Anything, "p-2").Return(nil, errors.New("connection refused"))

		svc := newTestService(t, store, nil, domain.EngineConfig{})
		result, err := svc.Evaluate(ctx, boundaryInput(), RequestOptions{PatientID: "p-2"})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Recommendations)
	})

	t.Run("Observer_Failure_Is_Ignored", func(t *testing.T) {
		observer := new(MockObserver)
		observer.On("ObserveEvaluation", mock.Anything, mock.Anything).Return(errors.New("sink down"))

		svc := newTestService(t, nil, observer, domain.EngineConfig{})
		result, err := svc.Evaluate(ctx, boundaryInput(), RequestOptions{})
		require.NoError(t, err)
		require.NotNil(t, result)

		svc.Wait()
		observer.AssertNumberOfCalls(t, "ObserveEvaluation", 1)
	})
}

func TestScreeningService_EvaluateBatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, nil, nil, domain.EngineConfig{BatchConcurrency: 2, BatchMaxSize: 3})

	t.Run("Mixed_Entries", func(t *testing.T) {
		items, err := svc.EvaluateBatch(ctx, []map[string]any{
			boundaryInput(),
			{"idade": "x", "sexo": "F"},
			{"idade": 30, "sexo": "F"},
		}, RequestOptions{})
		require.NoError(t, err)
		require.Len(t, items, 3)

		assert.NoError(t, items[0].Error)
		assert.NotNil(t, items[0].Result)
		assert.Error(t, items[1].Error)
		assert.Nil(t, items[1].Result)
		assert.NoError(t, items[2].Error)
		for i, item := range items {
			assert.Equal(t, i, item.Index)
		}
	})

	t.Run("Too_Large", func(t *testing.T) {
		_, err := svc.EvaluateBatch(ctx, make([]map[string]any, 4), RequestOptions{})
		assert.ErrorIs(t, err, ErrBatchTooLarge)
	})
}

func TestScreeningService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Writer_Configured", func(t *testing.T) {
		store := new(MockStatusStore)
		store.On("SetStatus", mock.Anything, "p-1", "k", "done").Return(nil)

		svc := newTestService(t, store, nil, domain.EngineConfig{})
		assert.True(t, svc.StatusEnabled())
		require.NoError(t, svc.SetStatus(ctx, "p-1", "k", "done"))
		store.AssertExpectations(t)
	})

	t.Run("Writer_Error_Is_Wrapped", func(t *testing.T) {
		store := new(MockStatusStore)
		store.On("SetStatus", mock.Anything, "p-1", "k", "done").Return(domain.ErrNotFound)

		svc := newTestService(t, store, nil, domain.EngineConfig{})
		assert.ErrorIs(t, svc.SetStatus(ctx, "p-1", "k", "done"), domain.ErrNotFound)
	})

	t.Run("No_Writer", func(t *testing.T) {
		svc := newTestService(t, nil, nil, domain.EngineConfig{})
		assert.False(t, svc.StatusEnabled())
		assert.ErrorIs(t, svc.SetStatus(ctx, "p-1", "k", "done"), ErrStatusUnsupported)

		readOnly := newTestService(t, readOnlyStatuses{}, nil, domain.EngineConfig{})
		assert.ErrorIs(t, readOnly.SetStatus(ctx, "p-1", "k", "done"), ErrStatusUnsupported)
	})
}
