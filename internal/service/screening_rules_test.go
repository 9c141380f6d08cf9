package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screening-engine/internal/domain"
)

func basicProfile(age int, sex domain.Sex) domain.PatientProfile {
	return domain.PatientProfile{
		Age:           age,
		Sex:           sex,
		Smoking:       domain.NEVER_SMOKER,
		Comorbidities: []string{},
		Medications:   []string{},
	}
}

func titles(recs []domain.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Title)
	}
	return out
}

func countContaining(recs []domain.Recommendation, fragment string) int {
	n := 0
	for _, r := range recs {
		if strings.Contains(strings.ToLower(r.Title), strings.ToLower(fragment)) {
			n++
		}
	}
	return n
}

func TestScreeningRuleEngine_RulesAreUniqueAndOrdered(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	rules := engine.Rules()
	require.NotEmpty(t, rules)
	assert.Equal(t, "breast_mammography", rules[0].ID)

	seen := map[string]bool{}
	for _, r := range rules {
		assert.False(t, seen[r.ID], "duplicate rule %s", r.ID)
		seen[r.ID] = true
		assert.NotEmpty(t, r.Family)
	}
	assert.True(t, seen["risk_cac"])
}

func TestScreeningRuleEngine_EvaluateRule(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	t.Run("unknown rule", func(t *testing.T) {
		_, err := engine.EvaluateRule("does_not_exist", basicProfile(40, domain.MALE), "")
		assert.Error(t, err)
	})

	t.Run("mammography window", func(t *testing.T) {
		rec, err := engine.EvaluateRule("breast_mammography", basicProfile(40, domain.FEMALE), "")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, domain.IMAGING, rec.Category)
		assert.Equal(t, "breast_mammography", rec.RuleID)

		rec, err = engine.EvaluateRule("breast_mammography", basicProfile(75, domain.FEMALE), "")
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = engine.EvaluateRule("breast_mammography", basicProfile(50, domain.MALE), "")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("same input same outcome", func(t *testing.T) {
		p := basicProfile(60, domain.FEMALE)
		for _, info := range engine.Rules() {
			first, err1 := engine.EvaluateRule(info.ID, p, domain.RISK_INTERMEDIATE)
			second, err2 := engine.EvaluateRule(info.ID, p, domain.RISK_INTERMEDIATE)
			require.NoError(t, err1)
			require.NoError(t, err2)
			assert.Equal(t, first, second, "rule %s", info.ID)
		}
	})
}

func TestScreeningRules_Infectious(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	minor := engine.EvaluateAllRules(basicProfile(17, domain.FEMALE), "")
	assert.Zero(t, countContaining(minor, "HIV"))
	assert.Zero(t, countContaining(minor, "HCV"))

	adult := engine.EvaluateAllRules(basicProfile(18, domain.FEMALE), "")
	assert.Equal(t, 1, countContaining(adult, "anti-HIV"))
	assert.Equal(t, 1, countContaining(adult, "anti-HCV"))

	older := engine.EvaluateAllRules(basicProfile(70, domain.MALE), "")
	assert.Zero(t, countContaining(older, "anti-HIV"))
	assert.Equal(t, 1, countContaining(older, "anti-HCV"))
}

func TestScreeningRules_Colorectal(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	recs := engine.EvaluateAllRules(basicProfile(45, domain.MALE), "")
	assert.Equal(t, 1, countContaining(recs, "colorretal"))
	assert.Equal(t, 1, countContaining(recs, "colorretal (45-75 anos)"))
	assert.Zero(t, countContaining(recs, "76-85"))

	recs = engine.EvaluateAllRules(basicProfile(80, domain.MALE), "")
	assert.Equal(t, 1, countContaining(recs, "colorretal (76-85 anos)"))
	assert.Zero(t, countContaining(recs, "45-75"))

	recs = engine.EvaluateAllRules(basicProfile(44, domain.MALE), "")
	assert.Zero(t, countContaining(recs, "colorretal"))
}

func TestScreeningRules_LungCT(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	smoker := func(age int) domain.PatientProfile {
		p := basicProfile(age, domain.MALE)
		p.Smoking = domain.CURRENT_SMOKER
		p.PackYears = 25
		return p
	}

	rec, err := engine.EvaluateRule("lung_ldct", smoker(65), "")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	rec, err = engine.EvaluateRule("lung_ldct", smoker(81), "")
	require.NoError(t, err)
	assert.Nil(t, rec)

	t.Run("pack years below threshold", func(t *testing.T) {
		p := smoker(65)
		p.PackYears = 19
		rec, err := engine.EvaluateRule("lung_ldct", p, "")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("former smoker quit window", func(t *testing.T) {
		p := smoker(65)
		p.Smoking = domain.FORMER_SMOKER

		p.YearsSinceQuit = fp(10)
		rec, _ := engine.EvaluateRule("lung_ldct", p, "")
		assert.NotNil(t, rec)

		p.YearsSinceQuit = fp(16)
		rec, _ = engine.EvaluateRule("lung_ldct", p, "")
		assert.Nil(t, rec)

		p.YearsSinceQuit = nil
		rec, _ = engine.EvaluateRule("lung_ldct", p, "")
		assert.NotNil(t, rec)
	})

	t.Run("never smoker", func(t *testing.T) {
		p := smoker(65)
		p.Smoking = domain.NEVER_SMOKER
		rec, _ := engine.EvaluateRule("lung_ldct", p, "")
		assert.Nil(t, rec)
	})
}

func TestScreeningRules_HypertensionPanels(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	normo := basicProfile(50, domain.FEMALE)
	normo.SystolicBP = fp(120)
	recs := engine.EvaluateAllRules(normo, "")
	assert.Zero(t, countContaining(recs, "Potássio"))

	hyper := basicProfile(50, domain.FEMALE)
	hyper.SystolicBP = fp(150)
	recs = engine.EvaluateAllRules(hyper, "")
	assert.Equal(t, 1, countContaining(recs, "Potássio"))
	assert.Equal(t, 1, countContaining(recs, "Eletrocardiograma"))
	assert.Equal(t, 2, countContaining(recs, "Perfil lipídico"))
	assert.Zero(t, countContaining(recs, "aldosterona"))

	resistant := basicProfile(50, domain.FEMALE)
	resistant.Comorbidities = []string{domain.ComorbidityResistantHypertension}
	recs = engine.EvaluateAllRules(resistant, "")
	assert.Equal(t, 1, countContaining(recs, "aldosterona"))
	assert.Equal(t, 1, countContaining(recs, "Polissonografia"))
	assert.Equal(t, 1, countContaining(recs, "Doppler"))
	assert.Equal(t, 1, countContaining(recs, "Potássio"))
}

func TestScreeningRules_Vaccines(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())

	young, err := engine.EvaluateRule("vaccine_influenza", basicProfile(30, domain.MALE), "")
	require.NoError(t, err)
	require.NotNil(t, young)
	assert.Equal(t, domain.MEDIUM, young.Priority)
	assert.Equal(t, "SBIm/ANVISA 2024", young.Citation)

	elder, _ := engine.EvaluateRule("vaccine_influenza", basicProfile(65, domain.FEMALE), "")
	require.NotNil(t, elder)
	assert.Equal(t, domain.HIGH, elder.Priority)

	pregnant := basicProfile(28, domain.FEMALE)
	pregnant.IsPregnant = true
	recs := engine.EvaluateAllRules(pregnant, "")
	assert.Equal(t, 1, countContaining(recs, "dTpa gestacional"))
	assert.Equal(t, 1, countContaining(recs, "Sorologias pré-natais"))
	assert.Zero(t, countContaining(recs, "dT/dTpa (reforço)"))

	zoster, _ := engine.EvaluateRule("vaccine_zoster", basicProfile(49, domain.MALE), "")
	assert.Nil(t, zoster)
	zoster, _ = engine.EvaluateRule("vaccine_zoster", basicProfile(50, domain.MALE), "")
	assert.NotNil(t, zoster)

	for _, r := range engine.EvaluateAllRules(basicProfile(70, domain.FEMALE), "") {
		if r.RuleID != "" && strings.HasPrefix(r.RuleID, "vaccine_") {
			assert.Equal(t, domain.VACCINE, r.Category, r.RuleID)
		}
	}
}

func TestScreeningRules_RiskGated(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())
	p := basicProfile(55, domain.MALE)

	tests := []struct {
		risk     domain.RiskCategory
		expected []string
	}{
		{"", nil},
		{domain.RISK_LOW, nil},
		{domain.RISK_BORDERLINE, []string{"risk_lpa", "risk_hscrp", "risk_cac"}},
		{domain.RISK_INTERMEDIATE, []string{"risk_lpa", "risk_hscrp", "risk_cac", "risk_abi"}},
		{domain.RISK_HIGH, []string{"risk_lpa", "risk_abi"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.risk), func(t *testing.T) {
			var fired []string
			for _, r := range engine.EvaluateAllRules(p, tt.risk) {
				if strings.HasPrefix(r.RuleID, "risk_") {
					fired = append(fired, r.RuleID)
				}
			}
			assert.Equal(t, tt.expected, fired)
		})
	}

	cac, _ := engine.EvaluateRule("risk_cac", p, domain.RISK_INTERMEDIATE)
	require.NotNil(t, cac)
	assert.Equal(t, domain.HIGH, cac.Priority)
}

func TestScreeningRuleEngine_FaultIsolation(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())
	baseline := engine.EvaluateAllRules(basicProfile(50, domain.FEMALE), "")

	engine.addRule(&ScreeningRule{
		ID:     "broken_rule",
		Family: FamilyMetabolic,
		Evaluator: func(domain.PatientProfile, domain.RiskCategory) *domain.Recommendation {
			panic("boom")
		},
	})
	engine.addRule(&ScreeningRule{
		ID:     "invalid_rule",
		Family: FamilyMetabolic,
		Evaluator: func(domain.PatientProfile, domain.RiskCategory) *domain.Recommendation {
			return &domain.Recommendation{Title: "Sem categoria", Priority: domain.HIGH}
		},
	})

	recs := engine.EvaluateAllRules(basicProfile(50, domain.FEMALE), "")
	assert.Equal(t, titles(baseline), titles(recs))

	_, err := engine.EvaluateRule("broken_rule", basicProfile(50, domain.FEMALE), "")
	assert.Error(t, err)
	_, err = engine.EvaluateRule("invalid_rule", basicProfile(50, domain.FEMALE), "")
	assert.Error(t, err)
}

func TestScreeningRuleEngine_DuplicateRulePanics(t *testing.T) {
	engine := NewScreeningRuleEngine(newTestLogger())
	assert.Panics(t, func() {
		engine.addRule(&ScreeningRule{ID: "lung_ldct"})
	})
}
