package checkup

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screening-engine/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func sampleResult(id string) *domain.EvaluationResult {
	return &domain.EvaluationResult{
		ID:        id,
		PatientID: "patient-1",
		Profile:   domain.PatientProfile{Age: 62, Sex: domain.FEMALE},
		Risk: &domain.RiskAssessment{
			Success:  true,
			Risk10Yr: 12.5,
			Risk30Yr: 31.0,
			Category: domain.RISK_HIGH,
		},
		Recommendations: []domain.Recommendation{
			{Title: "Mamografia", Priority: domain.HIGH},
			{Title: "Densitometria óssea", Priority: domain.MEDIUM},
		},
		EvaluatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFromResult(t *testing.T) {
	t.Run("Successful_Risk", func(t *testing.T) {
		c := FromResult(sampleResult("eval-1"))

		assert.Equal(t, "eval-1", c.EvaluationID)
		assert.Equal(t, 62, c.Age)
		assert.Equal(t, "female", c.Sex)
		assert.True(t, c.RiskSuccess)
		assert.Equal(t, "high", c.RiskCategory)
		require.NotNil(t, c.Risk10Yr)
		assert.Equal(t, 12.5, *c.Risk10Yr)
		assert.Equal(t, 2, c.RecommendationCount)
		assert.Equal(t, 1, c.HighPriorityCount)
		assert.Equal(t, []string{"Mamografia", "Densitometria óssea"}, c.Recommendations)
	})

	t.Run("Failed_Risk", func(t *testing.T) {
		result := sampleResult("eval-2")
		result.Risk = &domain.RiskAssessment{Success: false, Error: "missing fields"}

		c := FromResult(result)

		assert.False(t, c.RiskSuccess)
		assert.Empty(t, c.RiskCategory)
		assert.Nil(t, c.Risk10Yr)
		assert.Nil(t, c.Risk30Yr)
	})
}

func TestRecorder_ObserveEvaluation(t *testing.T) {
	store := createTestStore(t)
	recorder := NewRecorder(store, newTestLogger())
	ctx := context.Background()

	assert.Equal(t, "checkup_recorder", recorder.Name())

	require.NoError(t, recorder.ObserveEvaluation(ctx, sampleResult("eval-1")))

	got, err := store.Get(ctx, "eval-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "patient-1", got.PatientID)
	assert.Equal(t, 1, got.HighPriorityCount)

	list, err := store.ListByPatient(ctx, "patient-1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRecorder_ObserveEvaluation_InvalidResult(t *testing.T) {
	recorder := NewRecorder(createTestStore(t), newTestLogger())

	err := recorder.ObserveEvaluation(context.Background(), &domain.EvaluationResult{})

	assert.Error(t, err)
}
