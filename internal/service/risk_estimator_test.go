package service

import (
	"testing"

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

func fp(v float64) *float64 { return &v }

func riskProfile(age int, sex domain.Sex, tc, hdl, sbp, scr float64) domain.PatientProfile {
	return domain.PatientProfile{
		Age:              age,
		Sex:              sex,
		TotalCholesterol: fp(tc),
		HDLCholesterol:   fp(hdl),
		SystolicBP:       fp(sbp),
		Creatinine:       fp(scr),
		Smoking:          domain.NEVER_SMOKER,
		Comorbidities:    []string{},
		Medications:      []string{},
	}
}

func TestCalculateEGFR(t *testing.T) {
	tests := []struct {
		name       string
		creatinine float64
		age        int
		sex        domain.Sex
		expected   int
	}{
		{"male 55 creatinine 1.0", 1.0, 55, domain.MALE, 89},
		{"female 60 creatinine 0.8", 0.8, 60, domain.FEMALE, 84},
		{"male 70 creatinine 2.5", 2.5, 70, domain.MALE, 27},
		{"non-positive creatinine", 0, 50, domain.MALE, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateEGFR(tt.creatinine, tt.age, tt.sex))
		})
	}
}

func TestRiskEstimator_BoundaryScenario(t *testing.T) {
	estimator := NewRiskEstimator(newTestLogger())

	p := riskProfile(55, domain.MALE, 220, 45, 140, 1.0)
	p.Smoking = domain.CURRENT_SMOKER
	p.Comorbidities = []string{domain.ComorbidityHypertension}

	risk := estimator.Estimate(p)
	require.True(t, risk.Success)
	assert.Equal(t, 89, risk.Clinical.EGFR)
	assert.InDelta(t, 175.0, risk.Clinical.NonHDL, 1e-9)
	assert.InDelta(t, 11.5, risk.Risk10Yr, 0.05)
	assert.InDelta(t, 34.5, risk.Risk30Yr, 0.05)
	assert.GreaterOrEqual(t, risk.Risk30Yr, risk.Risk10Yr)
	assert.Equal(t, domain.RISK_INTERMEDIATE, risk.Category)
	assert.Equal(t, "Intermediário", risk.Category.Label())
	assert.True(t, risk.Clinical.OnAntihypertensive)
	assert.True(t, risk.Clinical.CurrentSmoker)
}

func TestRiskEstimator_InsufficientData(t *testing.T) {
	estimator := NewRiskEstimator(newTestLogger())

	p := domain.PatientProfile{Age: 50, Sex: domain.FEMALE, TotalCholesterol: fp(200)}
	risk := estimator.Estimate(p)

	assert.False(t, risk.Success)
	assert.NotEmpty(t, risk.Error)
	assert.Equal(t, []string{domain.FieldHDL, domain.FieldSystolic, domain.FieldCreatinine}, risk.Missing)
	assert.Equal(t, domain.RiskCategory(""), risk.EffectiveCategory())
}

func TestRiskEstimator_SystolicMonotonicity(t *testing.T) {
	estimator := NewRiskEstimator(newTestLogger())

	profiles := []domain.PatientProfile{
		riskProfile(62, domain.FEMALE, 210, 50, 0, 0.9),
		riskProfile(75, domain.MALE, 240, 40, 0, 1.2),
		riskProfile(35, domain.MALE, 180, 50, 0, 0.9),
		riskProfile(85, domain.FEMALE, 230, 45, 0, 1.1),
	}
	profiles[1].Smoking = domain.CURRENT_SMOKER
	profiles[1].Comorbidities = []string{domain.ComorbidityDiabetes, domain.ComorbidityHypertension}

	for _, base := range profiles {
		previous := -1.0
		for sbp := 110.0; sbp <= 160; sbp += 5 {
			p := base
			p.SystolicBP = fp(sbp)
			risk := estimator.Estimate(p)
			require.True(t, risk.Success)
			assert.GreaterOrEqual(t, risk.Risk10Yr, previous, "age %d sex %s sbp %.0f", p.Age, p.Sex, sbp)
			previous = risk.Risk10Yr
		}
	}
}

func TestRiskEstimator_ThirtyYearInvariants(t *testing.T) {
	estimator := NewRiskEstimator(newTestLogger())

	p := riskProfile(70, domain.MALE, 260, 35, 170, 1.3)
	p.Smoking = domain.CURRENT_SMOKER
	p.Comorbidities = []string{domain.ComorbidityDiabetes, domain.ComorbidityHypertension}

	risk := estimator.Estimate(p)
	require.True(t, risk.Success)
	assert.Equal(t, 80.0, risk.Risk30Yr)
	assert.GreaterOrEqual(t, risk.Risk30Yr, risk.Risk10Yr)
	assert.Equal(t, domain.RISK_HIGH, risk.Category)
}

func TestRiskEstimator_YoungUsesThirtyYear(t *testing.T) {
	estimator := NewRiskEstimator(newTestLogger())

	p := riskProfile(35, domain.MALE, 260, 35, 150, 1.0)
	p.Smoking = domain.CURRENT_SMOKER
	p.Comorbidities = []string{domain.ComorbidityDiabetes}

	risk := estimator.Estimate(p)
	require.True(t, risk.Success)
	assert.Less(t, risk.Risk10Yr, 20.0)
	assert.GreaterOrEqual(t, risk.Risk30Yr, 45.0)
	assert.Equal(t, domain.RISK_HIGH, risk.Category)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name     string
		age      int
		risk10   float64
		risk30   float64
		expected domain.RiskCategory
	}{
		{"older low", 50, 4.9, 14.7, domain.RISK_LOW},
		{"older borderline", 50, 5.0, 15.0, domain.RISK_BORDERLINE},
		{"older intermediate", 50, 7.5, 22.5, domain.RISK_INTERMEDIATE},
		{"older high", 50, 20.0, 60.0, domain.RISK_HIGH},
		{"young low", 39, 1.0, 14.9, domain.RISK_LOW},
		{"young borderline", 39, 1.0, 15.0, domain.RISK_BORDERLINE},
		{"young intermediate", 39, 2.0, 30.0, domain.RISK_INTERMEDIATE},
		{"young high", 39, 5.0, 45.0, domain.RISK_HIGH},
		{"young ignores 10-year", 30, 25.0, 10.0, domain.RISK_LOW},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyRisk(tt.age, tt.risk10, tt.risk30))
		})
	}
}

func TestExtrapolate30Year(t *testing.T) {
	assert.Equal(t, 7.0, extrapolate30Year(45, 2.0))
	assert.Equal(t, 6.0, extrapolate30Year(55, 2.0))
	assert.Equal(t, 5.0, extrapolate30Year(65, 2.0))
	assert.Equal(t, 80.0, extrapolate30Year(65, 40.0))
	assert.Equal(t, 80.0, extrapolate30Year(65, 85.0))
}
