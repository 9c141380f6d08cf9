// Package domain contains the core entities of the preventive screening engine:
// the canonical patient profile, cardiovascular risk assessments and
// screening recommendations, together with the enumerations that tie them
// to guideline vocabulary.
//
// Reference: Khan SS et al. (2023) Development and Validation of the American
// Heart Association's PREVENT Equations. Circulation 149(6):430-449.
// doi: 10.1161/CIRCULATIONAHA.123.067626
package domain

import (
	"errors"
)

// Sex is the biological sex used by sex-stratified equations and rules.
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// SmokingStatus is the canonical tobacco exposure class.
type SmokingStatus string

const (
	NEVER_SMOKER   SmokingStatus = "never"
	CURRENT_SMOKER SmokingStatus = "current"
	FORMER_SMOKER  SmokingStatus = "former"
)

// RecommendationCategory groups recommendations by the kind of order placed.
type RecommendationCategory string

const (
	LAB     RecommendationCategory = "lab"
	IMAGING RecommendationCategory = "imaging"
	VACCINE RecommendationCategory = "vaccine"
)

// Priority ranks a recommendation. Lower rank wins during deduplication.
type Priority string

const (
	HIGH   Priority = "high"
	MEDIUM Priority = "medium"
	LOW    Priority = "low"
)

// RiskCategory is the four-level cardiovascular risk band.
type RiskCategory string

const (
	RISK_LOW          RiskCategory = "low"
	RISK_BORDERLINE   RiskCategory = "borderline"
	RISK_INTERMEDIATE RiskCategory = "intermediate"
	RISK_HIGH         RiskCategory = "high"
)

var (
	ErrInvalidSex      = errors.New("invalid sex")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidCategory = errors.New("invalid recommendation category")
)

// IsValid reports whether s is one of the supported sexes.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

func (s Sex) String() string {
	return string(s)
}

// IsValid reports whether s is a canonical smoking status.
func (s SmokingStatus) IsValid() bool {
	switch s {
	case NEVER_SMOKER, CURRENT_SMOKER, FORMER_SMOKER:
		return true
	default:
		return false
	}
}

func (s SmokingStatus) String() string {
	return string(s)
}

// EverSmoked reports current or former tobacco exposure.
func (s SmokingStatus) EverSmoked() bool {
	return s == CURRENT_SMOKER || s == FORMER_SMOKER
}

// IsValid reports whether c is a supported recommendation category.
func (c RecommendationCategory) IsValid() bool {
	switch c {
	case LAB, IMAGING, VACCINE:
		return true
	default:
		return false
	}
}

func (c RecommendationCategory) String() string {
	return string(c)
}

// IsValid reports whether p is a supported priority.
func (p Priority) IsValid() bool {
	switch p {
	case HIGH, MEDIUM, LOW:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	return string(p)
}

// Rank returns the numeric ordering used by the aggregator:
// high=1 < medium=2 < low=3. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case HIGH:
		return 1
	case MEDIUM:
		return 2
	case LOW:
		return 3
	default:
		return 4
	}
}

// IsValid reports whether rc is one of the four risk bands.
func (rc RiskCategory) IsValid() bool {
	switch rc {
	case RISK_LOW, RISK_BORDERLINE, RISK_INTERMEDIATE, RISK_HIGH:
		return true
	default:
		return false
	}
}

func (rc RiskCategory) String() string {
	return string(rc)
}

// In reports whether rc is one of the given categories.
// An unknown (empty) category is never in any set.
func (rc RiskCategory) In(categories ...RiskCategory) bool {
	if rc == "" {
		return false
	}
	for _, c := range categories {
		if rc == c {
			return true
		}
	}
	return false
}

// Label returns the display label used in patient-facing output.
func (rc RiskCategory) Label() string {
	switch rc {
	case RISK_LOW:
		return "Baixo"
	case RISK_BORDERLINE:
		return "Borderline"
	case RISK_INTERMEDIATE:
		return "Intermediário"
	case RISK_HIGH:
		return "Alto"
	default:
		return ""
	}
}

// Color returns the display colour associated with the band.
func (rc RiskCategory) Color() string {
	switch rc {
	case RISK_LOW:
		return "#28a745"
	case RISK_BORDERLINE:
		return "#ffc107"
	case RISK_INTERMEDIATE:
		return "#fd7e14"
	case RISK_HIGH:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}

// Description returns a short clinical description of the band.
func (rc RiskCategory) Description() string {
	switch rc {
	case RISK_LOW:
		return "Risco cardiovascular baixo: manter hábitos saudáveis e reavaliar periodicamente."
	case RISK_BORDERLINE:
		return "Risco limítrofe: considerar fatores agravantes e biomarcadores adicionais."
	case RISK_INTERMEDIATE:
		return "Risco intermediário: considerar escore de cálcio coronariano e terapia preventiva."
	case RISK_HIGH:
		return "Risco alto: indicação de intervenção preventiva intensiva."
	default:
		return ""
	}
}

// LogFields returns structured logging fields for the band.
func (rc RiskCategory) LogFields() map[string]any {
	return map[string]any{
		"risk_category": string(rc),
		"risk_label":    rc.Label(),
		"is_valid":      rc.IsValid(),
	}
}
