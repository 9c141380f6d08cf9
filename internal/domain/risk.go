package domain

import (
	"time"
)

// ClinicalData carries the intermediate values the risk model was fed with.
type ClinicalData struct {
	Age                int      `json:"age"`
	Sex                Sex      `json:"sex"`
	EGFR               int      `json:"egfr"`
	NonHDL             float64  `json:"non_hdl"`
	BMI                *float64 `json:"bmi,omitempty"`
	SystolicBP         float64  `json:"systolic_bp"`
	TotalCholesterol   float64  `json:"total_cholesterol"`
	HDLCholesterol     float64  `json:"hdl_cholesterol"`
	Creatinine         float64  `json:"creatinine"`
	Diabetes           bool     `json:"diabetes"`
	CurrentSmoker      bool     `json:"current_smoker"`
	OnAntihypertensive bool     `json:"on_antihypertensive"`
	OnStatin           bool     `json:"on_statin"`
}

// RiskAssessment is the output of the risk estimator. A soft failure has
// Success=false, a message and the list of missing fields; no other field
// is meaningful in that case.
type RiskAssessment struct {
	Success  bool         `json:"success"`
	Error    string       `json:"error,omitempty"`
	Missing  []string     `json:"missing,omitempty"`
	Risk10Yr float64      `json:"risk_10yr"`
	Risk30Yr float64      `json:"risk_30yr"`
	Category RiskCategory `json:"category,omitempty"`
	Clinical ClinicalData `json:"clinical_data"`
}

// EffectiveCategory returns the risk band, or "" when no estimate exists.
// Risk-gated rules see "" as "no category" and never fire.
func (r *RiskAssessment) EffectiveCategory() RiskCategory {
	if r == nil || !r.Success {
		return ""
	}
	return r.Category
}

// EvaluationResult is one finished run of the pipeline.
type EvaluationResult struct {
	ID              string           `json:"id"`
	PatientID       string           `json:"patient_id,omitempty"`
	Profile         PatientProfile   `json:"profile"`
	Risk            *RiskAssessment  `json:"risk"`
	Recommendations []Recommendation `json:"recommendations"`
	EvaluatedAt     time.Time        `json:"evaluated_at"`
	Duration        time.Duration    `json:"duration_ns"`
	Cached          bool             `json:"cached"`
}
