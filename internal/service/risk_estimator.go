package service

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
)

// preventCoefficients holds one sex-specific set of the PREVENT base
// total-CVD 10-year logistic model.
type preventCoefficients struct {
	intercept     float64
	age           float64
	nonHDL        float64
	hdl           float64
	sbpLow        float64
	sbpHigh       float64
	diabetes      float64
	smoking       float64
	egfrLow       float64
	egfrHigh      float64
	antiHTN       float64
	statin        float64
	treatedSBP    float64
	treatedNonHDL float64
	ageNonHDL     float64
	ageHDL        float64
	ageSBPHigh    float64
	ageDiabetes   float64
	ageSmoking    float64
	ageEGFRLow    float64
}

var preventFemale = preventCoefficients{
	intercept:     -3.307728,
	age:           0.7939329,
	nonHDL:        0.0305239,
	hdl:           -0.1606857,
	sbpLow:        -0.2394003,
	sbpHigh:       0.360078,
	diabetes:      0.8667604,
	smoking:       0.5360739,
	egfrLow:       0.6045917,
	egfrHigh:      0.0433769,
	antiHTN:       0.3151672,
	statin:        -0.1477655,
	treatedSBP:    -0.0663612,
	treatedNonHDL: 0.1197879,
	ageNonHDL:     -0.0819715,
	ageHDL:        0.0306769,
	ageSBPHigh:    -0.0946348,
	ageDiabetes:   -0.27057,
	ageSmoking:    -0.078715,
	ageEGFRLow:    -0.1637806,
}

var preventMale = preventCoefficients{
	intercept:     -3.031168,
	age:           0.7688528,
	nonHDL:        0.0736174,
	hdl:           -0.0954431,
	sbpLow:        -0.4347345,
	sbpHigh:       0.3362658,
	diabetes:      0.7692857,
	smoking:       0.4386871,
	egfrLow:       0.5378979,
	egfrHigh:      0.0164827,
	antiHTN:       0.288879,
	statin:        -0.1337349,
	treatedSBP:    -0.0475924,
	treatedNonHDL: 0.150273,
	ageNonHDL:     -0.0517874,
	ageHDL:        0.0191169,
	ageSBPHigh:    -0.1049477,
	ageDiabetes:   -0.2251948,
	ageSmoking:    -0.0895067,
	ageEGFRLow:    -0.1543702,
}

const (
	mgdlToMmol     = 0.02586
	modelMinAge    = 30
	modelMaxAge    = 79
	max30YearRisk  = 80.0
	youngAgeCutoff = 40
)

// RiskEstimator computes eGFR, non-HDL cholesterol and PREVENT 10/30-year
// cardiovascular risk for a profile.
type RiskEstimator struct {
	logger *logrus.Logger
}

// NewRiskEstimator creates a new risk estimator
func NewRiskEstimator(logger *logrus.Logger) *RiskEstimator {
	return &RiskEstimator{logger: logger}
}

// Estimate returns a successful assessment when age, sex, total cholesterol,
// HDL, systolic pressure and creatinine are all present. Otherwise the
// assessment has Success=false and lists the missing fields; it never fails
// harder than that.
func (e *RiskEstimator) Estimate(p domain.PatientProfile) *domain.RiskAssessment {
	if missing := missingRiskFields(p); len(missing) > 0 {
		insufficient := &domain.InsufficientRiskDataError{Missing: missing}
		e.logger.WithField("missing_fields", missing).Debug("Skipping cardiovascular risk estimate")
		return &domain.RiskAssessment{
			Success: false,
			Error:   insufficient.Error(),
			Missing: missing,
		}
	}

	tc, hdl, sbp, scr := *p.TotalCholesterol, *p.HDLCholesterol, *p.SystolicBP, *p.Creatinine
	egfr := CalculateEGFR(scr, p.Age, p.Sex)
	nonHDL := tc - hdl

	antiHTN := p.OnAntihypertensive() || p.HasAnyComorbidity(domain.ComorbidityHypertension, domain.ComorbidityResistantHypertension)
	logOdds := preventLogOdds(preventInputs{
		age:      p.Age,
		sex:      p.Sex,
		nonHDL:   nonHDL,
		hdl:      hdl,
		sbp:      sbp,
		egfr:     float64(egfr),
		diabetes: p.HasDiabetes(),
		smoker:   p.Smoking == domain.CURRENT_SMOKER,
		antiHTN:  antiHTN,
		statin:   p.OnStatin(),
	})

	risk10 := round1(100 / (1 + math.Exp(-logOdds)))
	risk30 := extrapolate30Year(p.Age, risk10)
	category := ClassifyRisk(p.Age, risk10, risk30)

	clinical := domain.ClinicalData{
		Age:                p.Age,
		Sex:                p.Sex,
		EGFR:               egfr,
		NonHDL:             round1(nonHDL),
		SystolicBP:         sbp,
		TotalCholesterol:   tc,
		HDLCholesterol:     hdl,
		Creatinine:         scr,
		Diabetes:           p.HasDiabetes(),
		CurrentSmoker:      p.Smoking == domain.CURRENT_SMOKER,
		OnAntihypertensive: antiHTN,
		OnStatin:           p.OnStatin(),
	}
	if bmi, ok := p.BMI(); ok {
		b := round1(bmi)
		clinical.BMI = &b
	}

	e.logger.WithFields(logrus.Fields{
		"risk_10yr":     risk10,
		"risk_30yr":     risk30,
		"risk_category": category,
		"egfr":          egfr,
	}).Debug("Estimated cardiovascular risk")

	return &domain.RiskAssessment{
		Success:  true,
		Risk10Yr: risk10,
		Risk30Yr: risk30,
		Category: category,
		Clinical: clinical,
	}
}

func missingRiskFields(p domain.PatientProfile) []string {
	var missing []string
	if !p.Sex.IsValid() {
		missing = append(missing, domain.FieldSex)
	}
	if p.TotalCholesterol == nil {
		missing = append(missing, domain.FieldTotalCholesterol)
	}
	if p.HDLCholesterol == nil {
		missing = append(missing, domain.FieldHDL)
	}
	if p.SystolicBP == nil {
		missing = append(missing, domain.FieldSystolic)
	}
	if p.Creatinine == nil {
		missing = append(missing, domain.FieldCreatinine)
	}
	return missing
}

// CalculateEGFR applies the race-free CKD-EPI 2021 creatinine equation and
// returns the result rounded to an integer, never below zero.
func CalculateEGFR(creatinine float64, age int, sex domain.Sex) int {
	if creatinine <= 0 {
		return 0
	}
	kappa, alpha, factor := 0.9, -0.302, 1.0
	if sex == domain.FEMALE {
		kappa, alpha, factor = 0.7, -0.241, 1.012
	}
	ratio := creatinine / kappa
	egfr := 142 *
		math.Pow(math.Min(ratio, 1), alpha) *
		math.Pow(math.Max(ratio, 1), -1.200) *
		math.Pow(0.9938, float64(age)) *
		factor
	if egfr < 0 || math.IsNaN(egfr) {
		return 0
	}
	return int(math.Round(egfr))
}

type preventInputs struct {
	age      int
	sex      domain.Sex
	nonHDL   float64 // mg/dL
	hdl      float64 // mg/dL
	sbp      float64
	egfr     float64
	diabetes bool
	smoker   bool
	antiHTN  bool
	statin   bool
}

func preventLogOdds(in preventInputs) float64 {
	c := preventMale
	if in.sex == domain.FEMALE {
		c = preventFemale
	}

	age := math.Min(math.Max(float64(in.age), modelMinAge), modelMaxAge)
	ageC := (age - 55) / 10
	nonHDLC := in.nonHDL*mgdlToMmol - 3.5
	hdlC := (in.hdl*mgdlToMmol - 1.3) / 0.3
	sbpLow := (math.Min(in.sbp, 110) - 110) / 20
	sbpHigh := (math.Max(in.sbp, 110) - 130) / 20
	egfrLow := (math.Min(in.egfr, 60) - 60) / -15
	egfrHigh := (math.Max(in.egfr, 60) - 90) / -15
	dm, smk, ahtn, stat := indicator(in.diabetes), indicator(in.smoker), indicator(in.antiHTN), indicator(in.statin)

	return c.intercept +
		c.age*ageC +
		c.nonHDL*nonHDLC +
		c.hdl*hdlC +
		c.sbpLow*sbpLow +
		c.sbpHigh*sbpHigh +
		c.diabetes*dm +
		c.smoking*smk +
		c.egfrLow*egfrLow +
		c.egfrHigh*egfrHigh +
		c.antiHTN*ahtn +
		c.statin*stat +
		c.treatedSBP*ahtn*sbpHigh +
		c.treatedNonHDL*stat*nonHDLC +
		c.ageNonHDL*ageC*nonHDLC +
		c.ageHDL*ageC*hdlC +
		c.ageSBPHigh*ageC*sbpHigh +
		c.ageDiabetes*ageC*dm +
		c.ageSmoking*ageC*smk +
		c.ageEGFRLow*ageC*egfrLow
}

// extrapolate30Year scales the 10-year risk by an age-banded factor. The
// result is never below the 10-year value, and the 80% cap is applied last
// so it holds even for a 10-year risk above 80.
func extrapolate30Year(age int, risk10 float64) float64 {
	factor := 2.5
	switch {
	case age < 50:
		factor = 3.5
	case age < 60:
		factor = 3.0
	}
	risk30 := math.Max(risk10*factor, risk10)
	return round1(math.Min(max30YearRisk, risk30))
}

// ClassifyRisk bands patients under 40 by 30-year risk (15/30/45) and
// everyone else by 10-year risk (5/7.5/20).
func ClassifyRisk(age int, risk10, risk30 float64) domain.RiskCategory {
	score, borderline, intermediate, high := risk10, 5.0, 7.5, 20.0
	if age < youngAgeCutoff {
		score, borderline, intermediate, high = risk30, 15.0, 30.0, 45.0
	}
	switch {
	case score >= high:
		return domain.RISK_HIGH
	case score >= intermediate:
		return domain.RISK_INTERMEDIATE
	case score >= borderline:
		return domain.RISK_BORDERLINE
	default:
		return domain.RISK_LOW
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
