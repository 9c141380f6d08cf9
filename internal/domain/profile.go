package domain

import (
	"strings"
)

// Canonical comorbidity tokens produced by the normalizer.
const (
	ComorbidityHypertension          = "hypertension"
	ComorbidityResistantHypertension = "resistant_hypertension"
	ComorbidityCardiopathy           = "cardiopathy"
	ComorbidityDiabetes              = "diabetes"
	ComorbidityDyslipidemia          = "dyslipidemia"
	ComorbidityChronicKidneyDisease  = "chronic_kidney_disease"
	ComorbidityChronicLungDisease    = "chronic_lung_disease"
	ComorbidityCoronaryDisease       = "coronary_disease"
	ComorbidityStroke                = "stroke"
	ComorbidityObesity               = "obesity"
	ComorbidityLiverDisease          = "liver_disease"
	ComorbidityImmunosuppression     = "immunosuppression"
	ComorbidityHIV                   = "hiv"
)

// hypertensionBearing lists the tokens that imply a hypertensive patient.
var hypertensionBearing = []string{
	ComorbidityHypertension,
	ComorbidityResistantHypertension,
	ComorbidityCardiopathy,
}

// Substrings matched against normalized medication names.
var antihypertensiveKeywords = []string{
	"anti-hipertensivo", "antihipertensivo", "antihypertensive",
	"losartan", "valsartan", "olmesartan", "candesartan", "telmisartan", "irbesartan",
	"enalapril", "captopril", "ramipril", "lisinopril", "perindopril",
	"anlodipin", "amlodipin", "nifedipin", "diltiazem", "verapamil",
	"hidroclorotiazida", "hydrochlorothiazide", "clortalidona", "chlorthalidone", "indapamida", "indapamide",
	"atenolol", "metoprolol", "propranolol", "carvedilol", "bisoprolol", "nebivolol",
	"espironolactona", "spironolactone", "furosemida", "furosemide",
	"clonidina", "clonidine", "metildopa", "methyldopa", "hidralazina", "hydralazine",
}

var statinKeywords = []string{
	"estatina", "statin",
	"sinvastatina", "simvastatin", "atorvastatina", "atorvastatin",
	"rosuvastatina", "rosuvastatin", "pravastatina", "pravastatin",
	"pitavastatina", "pitavastatin", "lovastatina", "lovastatin",
	"fluvastatina", "fluvastatin",
}

// PatientProfile is the canonical snapshot of one evaluation request.
// It is built once by Normalize and must be treated as read-only; every
// derived value is computed by a method rather than stored.
//
// Optional measurements are nil when absent. Comorbidities and Medications
// are sorted and deduplicated.
type PatientProfile struct {
	PatientID        string        `json:"patient_id,omitempty"`
	Age              int           `json:"age"`
	Sex              Sex           `json:"sex"`
	WeightKg         *float64      `json:"weight_kg,omitempty"`
	HeightCm         *float64      `json:"height_cm,omitempty"`
	SystolicBP       *float64      `json:"systolic_bp,omitempty"`
	DiastolicBP      *float64      `json:"diastolic_bp,omitempty"`
	TotalCholesterol *float64      `json:"total_cholesterol_mgdl,omitempty"`
	HDLCholesterol   *float64      `json:"hdl_cholesterol_mgdl,omitempty"`
	Creatinine       *float64      `json:"creatinine_mgdl,omitempty"`
	Smoking          SmokingStatus `json:"smoking_status"`
	PackYears        float64       `json:"pack_years"`
	YearsSinceQuit   *float64      `json:"years_since_quit,omitempty"`
	Comorbidities    []string      `json:"comorbidities"`
	Medications      []string      `json:"medications"`
	IsPregnant       bool          `json:"is_pregnant"`
}

// BMI returns weight/height² when both are present.
func (p PatientProfile) BMI() (float64, bool) {
	if p.WeightKg == nil || p.HeightCm == nil || *p.HeightCm <= 0 {
		return 0, false
	}
	m := *p.HeightCm / 100
	return *p.WeightKg / (m * m), true
}

// BMIAtLeast reports whether BMI is known and ≥ threshold.
func (p PatientProfile) BMIAtLeast(threshold float64) bool {
	bmi, ok := p.BMI()
	return ok && bmi >= threshold
}

// HasComorbidity reports whether the canonical token is present.
func (p PatientProfile) HasComorbidity(token string) bool {
	for _, c := range p.Comorbidities {
		if c == token {
			return true
		}
	}
	return false
}

// HasAnyComorbidity reports whether any of the tokens is present.
func (p PatientProfile) HasAnyComorbidity(tokens ...string) bool {
	for _, t := range tokens {
		if p.HasComorbidity(t) {
			return true
		}
	}
	return false
}

// HasHypertension infers hypertension from pressures, comorbidities and
// antihypertensive medication.
func (p PatientProfile) HasHypertension() bool {
	if p.SystolicBP != nil && *p.SystolicBP > 130 {
		return true
	}
	if p.DiastolicBP != nil && *p.DiastolicBP > 90 {
		return true
	}
	if p.HasAnyComorbidity(hypertensionBearing...) {
		return true
	}
	return p.OnAntihypertensive()
}

func (p PatientProfile) HasResistantHypertension() bool {
	return p.HasComorbidity(ComorbidityResistantHypertension)
}

func (p PatientProfile) HasDiabetes() bool {
	return p.HasComorbidity(ComorbidityDiabetes)
}

// OnAntihypertensive reports an antihypertensive among the medications.
func (p PatientProfile) OnAntihypertensive() bool {
	return p.medicationMatches(antihypertensiveKeywords)
}

// OnStatin reports a statin among the medications.
func (p PatientProfile) OnStatin() bool {
	return p.medicationMatches(statinKeywords)
}

func (p PatientProfile) medicationMatches(keywords []string) bool {
	for _, med := range p.Medications {
		for _, kw := range keywords {
			if strings.Contains(med, kw) {
				return true
			}
		}
	}
	return false
}

func (p PatientProfile) IsAdult() bool {
	return p.Age >= 18
}

func (p PatientProfile) IsFemale() bool {
	return p.Sex == FEMALE
}

func (p PatientProfile) IsMale() bool {
	return p.Sex == MALE
}

// AgeBetween reports lo ≤ age ≤ hi.
func (p PatientProfile) AgeBetween(lo, hi int) bool {
	return p.Age >= lo && p.Age <= hi
}
