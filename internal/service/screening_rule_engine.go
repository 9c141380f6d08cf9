package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
)

// Rule families
const (
	FamilyCancer       = "cancer"
	FamilyInfectious   = "infectious"
	FamilyMetabolic    = "metabolic"
	FamilyHypertension = "hypertension"
	FamilyDiabetes     = "diabetes"
	FamilyPrenatal     = "prenatal"
	FamilyVaccine      = "vaccine"
	FamilyRiskGated    = "risk_escalation"
)

// ScreeningRuleEngine evaluates the fixed, ordered set of screening rules.
type ScreeningRuleEngine struct {
	logger *logrus.Logger
	rules  []*ScreeningRule
	index  map[string]*ScreeningRule
}

// ScreeningRule is a pure predicate over the profile (and, for risk-gated
// rules, the risk category) that yields zero or one recommendation.
type ScreeningRule struct {
	ID          string
	Name        string
	Family      string
	RiskGated   bool
	Description string
	Evaluator   func(p domain.PatientProfile, risk domain.RiskCategory) *domain.Recommendation
}

// RuleInfo describes a rule for listing surfaces.
type RuleInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Family      string `json:"family"`
	RiskGated   bool   `json:"risk_gated"`
	Description string `json:"description"`
}

// NewScreeningRuleEngine creates a new rule engine with the built-in rules
func NewScreeningRuleEngine(logger *logrus.Logger) *ScreeningRuleEngine {
	engine := &ScreeningRuleEngine{
		logger: logger,
		index:  make(map[string]*ScreeningRule),
	}

	engine.initializeRules()

	return engine
}

func (e *ScreeningRuleEngine) addRule(rule *ScreeningRule) {
	if _, exists := e.index[rule.ID]; exists {
		panic(fmt.Sprintf("duplicate screening rule id %q", rule.ID))
	}
	e.rules = append(e.rules, rule)
	e.index[rule.ID] = rule
}

// EvaluateAllRules runs every rule in order and returns the candidate
// multiset. A rule that panics or emits an invalid recommendation is logged
// and skipped; the remaining rules still run.
func (e *ScreeningRuleEngine) EvaluateAllRules(p domain.PatientProfile, risk domain.RiskCategory) []domain.Recommendation {
	candidates := make([]domain.Recommendation, 0, len(e.rules)/2)
	failed := 0

	for _, rule := range e.rules {
		rec, err := e.evaluate(rule, p, risk)
		if err != nil {
			failed++
			e.logger.WithError(err).WithField("rule", rule.ID).Warn("Failed to evaluate screening rule")
			continue
		}
		if rec != nil {
			candidates = append(candidates, *rec)
		}
	}

	e.logger.WithFields(logrus.Fields{
		"total_rules":   len(e.rules),
		"candidates":    len(candidates),
		"failed_rules":  failed,
		"risk_category": risk,
	}).Debug("Completed screening rule evaluation")

	return candidates
}

// EvaluateRule evaluates a specific rule by ID
func (e *ScreeningRuleEngine) EvaluateRule(ruleID string, p domain.PatientProfile, risk domain.RiskCategory) (*domain.Recommendation, error) {
	rule, exists := e.index[ruleID]
	if !exists {
		return nil, fmt.Errorf("unknown screening rule: %s", ruleID)
	}

	rec, err := e.evaluate(rule, p, risk)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate rule %s: %w", ruleID, err)
	}

	return rec, nil
}

// Rules lists the rules in evaluation order.
func (e *ScreeningRuleEngine) Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(e.rules))
	for _, r := range e.rules {
		infos = append(infos, RuleInfo{
			ID:          r.ID,
			Name:        r.Name,
			Family:      r.Family,
			RiskGated:   r.RiskGated,
			Description: r.Description,
		})
	}
	return infos
}

func (e *ScreeningRuleEngine) evaluate(rule *ScreeningRule, p domain.PatientProfile, risk domain.RiskCategory) (rec *domain.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = fmt.Errorf("rule %s panicked: %v", rule.ID, r)
		}
	}()

	rec = rule.Evaluator(p, risk)
	if rec == nil {
		return nil, nil
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("rule %s emitted invalid recommendation: %w", rule.ID, err)
	}
	rec.RuleID = rule.ID
	return rec, nil
}
