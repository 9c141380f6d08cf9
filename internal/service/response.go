package service

import (
	"github.com/screening-engine/internal/domain"
)

// RecommendationView is the caller-facing recommendation. Every text field
// is always present, empty when the rule did not set it.
type RecommendationView struct {
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	Priority       string                 `json:"priority"`
	Reference      string                 `json:"reference"`
	Subtitulo      string                 `json:"subtitulo"`
	GrauEvidencia  string                 `json:"grau_evidencia"`
	Status         string                 `json:"status"`
	RuleID         string                 `json:"rule_id"`
	ReferenceLinks []domain.ReferenceLink `json:"reference_links"`
	ReferenceHTML  string                 `json:"reference_html"`
}

// ClassificationView is the displayable risk band.
type ClassificationView struct {
	Category    string `json:"category"`
	Level       string `json:"level"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// ClinicalDataView exposes the derived clinical values.
type ClinicalDataView struct {
	EGFR               int      `json:"egfr"`
	BMI                *float64 `json:"bmi"`
	NonHDL             float64  `json:"non_hdl"`
	Age                int      `json:"age"`
	Sex                string   `json:"sex"`
	SystolicBP         float64  `json:"systolic_bp"`
	TotalCholesterol   float64  `json:"total_cholesterol"`
	HDLCholesterol     float64  `json:"hdl_cholesterol"`
	Creatinine         float64  `json:"creatinine"`
	Diabetes           bool     `json:"diabetes"`
	CurrentSmoker      bool     `json:"current_smoker"`
	OnAntihypertensive bool     `json:"on_antihypertensive"`
	OnStatin           bool     `json:"on_statin"`
}

// RiskView is either a full estimate or {success:false, error}.
type RiskView struct {
	Success        bool                `json:"success"`
	Error          string              `json:"error,omitempty"`
	Missing        []string            `json:"missing,omitempty"`
	Risk10Yr       *float64            `json:"risk_10yr,omitempty"`
	Risk30Yr       *float64            `json:"risk_30yr,omitempty"`
	Classification *ClassificationView `json:"classification,omitempty"`
	ClinicalData   *ClinicalDataView   `json:"clinical_data,omitempty"`
}

// EvaluationResponse is the shape returned by every surface.
type EvaluationResponse struct {
	EvaluationID    string               `json:"evaluation_id"`
	PatientID       string               `json:"patient_id,omitempty"`
	Risk            RiskView             `json:"risk_assessment"`
	Recommendations []RecommendationView `json:"recommendations"`
	Summary         ResponseSummary      `json:"summary"`
	Cached          bool                 `json:"cached"`
}

// ResponseSummary counts recommendations per category and priority.
type ResponseSummary struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	ByPriority map[string]int `json:"by_priority"`
}

// ShapeResponse converts a pipeline result into its caller-facing form.
func ShapeResponse(result *domain.EvaluationResult) *EvaluationResponse {
	resp := &EvaluationResponse{
		EvaluationID:    result.ID,
		PatientID:       result.PatientID,
		Risk:            ShapeRisk(result.Risk),
		Recommendations: make([]RecommendationView, 0, len(result.Recommendations)),
		Summary: ResponseSummary{
			ByCategory: map[string]int{},
			ByPriority: map[string]int{},
		},
		Cached: result.Cached,
	}

	for _, r := range result.Recommendations {
		resp.Recommendations = append(resp.Recommendations, ShapeRecommendation(r))
		resp.Summary.ByCategory[string(r.Category)]++
		resp.Summary.ByPriority[string(r.Priority)]++
	}
	resp.Summary.Total = len(resp.Recommendations)

	return resp
}

// ShapeRecommendation fills every text field and a non-nil link list.
func ShapeRecommendation(r domain.Recommendation) RecommendationView {
	links := r.ReferenceLinks
	if links == nil {
		links = []domain.ReferenceLink{}
	}
	return RecommendationView{
		Title:          r.Title,
		Description:    r.Description,
		Category:       string(r.Category),
		Priority:       string(r.Priority),
		Reference:      r.Citation,
		Subtitulo:      r.Subtitle,
		GrauEvidencia:  r.EvidenceGrade,
		Status:         r.Status,
		RuleID:         r.RuleID,
		ReferenceLinks: links,
		ReferenceHTML:  r.ReferenceHTML,
	}
}

// ShapeRisk builds the risk object. A nil or failed assessment yields
// {success:false, error}.
func ShapeRisk(risk *domain.RiskAssessment) RiskView {
	if risk == nil {
		return RiskView{Success: false, Error: "risk assessment unavailable"}
	}
	if !risk.Success {
		return RiskView{Success: false, Error: risk.Error, Missing: risk.Missing}
	}

	r10, r30 := risk.Risk10Yr, risk.Risk30Yr
	c := risk.Clinical
	return RiskView{
		Success:  true,
		Risk10Yr: &r10,
		Risk30Yr: &r30,
		Classification: &ClassificationView{
			Category:    risk.Category.Label(),
			Level:       string(risk.Category),
			Color:       risk.Category.Color(),
			Description: risk.Category.Description(),
		},
		ClinicalData: &ClinicalDataView{
			EGFR:               c.EGFR,
			BMI:                c.BMI,
			NonHDL:             c.NonHDL,
			Age:                c.Age,
			Sex:                string(c.Sex),
			SystolicBP:         c.SystolicBP,
			TotalCholesterol:   c.TotalCholesterol,
			HDLCholesterol:     c.HDLCholesterol,
			Creatinine:         c.Creatinine,
			Diabetes:           c.Diabetes,
			CurrentSmoker:      c.CurrentSmoker,
			OnAntihypertensive: c.OnAntihypertensive,
			OnStatin:           c.OnStatin,
		},
	}
}
