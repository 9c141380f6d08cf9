package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		ok    bool
	}{
		{"int", 42, 42, true},
		{"float", 1.5, 1.5, true},
		{"json number", json.Number("220"), 220, true},
		{"decimal comma", "120,5", 120.5, true},
		{"thousands dot and decimal comma", "1.234,5", 1234.5, true},
		{"thousands comma and decimal dot", "1,234.5", 1234.5, true},
		{"trailing unit", "1,0 mg/dL", 1.0, true},
		{"padded", "  140 ", 140, true},
		{"empty", "", 0, false},
		{"text", "abc", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestNormalizeSmoking(t *testing.T) {
	tests := []struct {
		input any
		want  SmokingStatus
	}{
		{"fumante", CURRENT_SMOKER},
		{"Fumante", CURRENT_SMOKER},
		{"current-smoker", CURRENT_SMOKER},
		{"atual", CURRENT_SMOKER},
		{"fumante há 20 anos", CURRENT_SMOKER},
		{"ex-fumante", FORMER_SMOKER},
		{"Ex Fumante há 10 anos", FORMER_SMOKER},
		{"former", FORMER_SMOKER},
		{"não fumante", NEVER_SMOKER},
		{"nunca", NEVER_SMOKER},
		{"banana", NEVER_SMOKER},
		{"", NEVER_SMOKER},
		{nil, NEVER_SMOKER},
		{true, CURRENT_SMOKER},
		{false, NEVER_SMOKER},
		{"on", CURRENT_SMOKER},
		{"1", CURRENT_SMOKER},
		{"true", CURRENT_SMOKER},
		{"s", CURRENT_SMOKER},
		{"y", CURRENT_SMOKER},
		{1, CURRENT_SMOKER},
		{"off", NEVER_SMOKER},
	}

	for _, tt := range tests {
		got := NormalizeSmoking(tt.input)
		assert.Equal(t, tt.want, got, "input %v", tt.input)
	}
}

func TestNormalizeSmokingIdempotent(t *testing.T) {
	inputs := []any{"fumante", "ex-fumante", "never", "tabagista atual", "", nil, "xyz", true}
	for _, in := range inputs {
		once := NormalizeSmoking(in)
		twice := NormalizeSmoking(string(once))
		assert.Equal(t, once, twice, "input %v", in)
	}
}

func TestNormalize_SmokingCheckbox(t *testing.T) {
	for _, v := range []any{"on", "1", 1, true} {
		p, err := Normalize(map[string]any{"idade": 60, "sexo": "M", "fumante": v})
		require.NoError(t, err)
		assert.Equal(t, CURRENT_SMOKER, p.Smoking, "fumante=%v", v)
	}
}

func TestIsTruthy(t *testing.T) {
	truthy := []any{"on", "ON", true, 1, 1.0, "sim", "Sim", "yes", "true", "s", "y", json.Number("1")}
	falsy := []any{"off", false, 0, 2, "nao", "no", "", nil, "talvez", []string{"on"}}

	for _, v := range truthy {
		assert.True(t, IsTruthy(v), "expected %v to be truthy", v)
	}
	for _, v := range falsy {
		assert.False(t, IsTruthy(v), "expected %v to be falsy", v)
	}

	for _, v := range append(truthy, falsy...) {
		assert.Equal(t, IsTruthy(v), IsTruthy(IsTruthy(v)), "idempotence for %v", v)
	}
}

func TestNormalize_RequiredFields(t *testing.T) {
	t.Run("missing age", func(t *testing.T) {
		_, err := Normalize(map[string]any{"sexo": "F"})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, FieldAge, ve.Field)
		assert.Equal(t, ErrValidation, ve.Code)
	})

	t.Run("unparseable age", func(t *testing.T) {
		_, err := Normalize(map[string]any{"idade": "quarenta", "sexo": "F"})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, FieldAge, ve.Field)
	})

	t.Run("age out of range", func(t *testing.T) {
		_, err := Normalize(map[string]any{"idade": -1, "sexo": "F"})
		require.Error(t, err)
	})

	t.Run("missing sex", func(t *testing.T) {
		_, err := Normalize(map[string]any{"idade": 40})
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, FieldSex, ve.Field)
	})

	t.Run("unknown sex", func(t *testing.T) {
		_, err := Normalize(map[string]any{"idade": 40, "sexo": "x"})
		require.Error(t, err)
	})
}

func TestNormalize_RiskPayload(t *testing.T) {
	p, err := Normalize(map[string]any{
		"age":               55,
		"sex":               "masculino",
		"colesterol_total":  220,
		"hdl_colesterol":    45,
		"pressao_sistolica": 140,
		"creatinina":        1.0,
		"comorbidades":      []any{"hipertensao"},
		"tabagismo":         "fumante",
	})
	require.NoError(t, err)

	assert.Equal(t, 55, p.Age)
	assert.Equal(t, MALE, p.Sex)
	require.NotNil(t, p.TotalCholesterol)
	assert.Equal(t, 220.0, *p.TotalCholesterol)
	require.NotNil(t, p.HDLCholesterol)
	assert.Equal(t, 45.0, *p.HDLCholesterol)
	require.NotNil(t, p.SystolicBP)
	assert.Equal(t, 140.0, *p.SystolicBP)
	require.NotNil(t, p.Creatinine)
	assert.Equal(t, 1.0, *p.Creatinine)
	assert.Equal(t, []string{ComorbidityHypertension}, p.Comorbidities)
	assert.Equal(t, CURRENT_SMOKER, p.Smoking)
	assert.True(t, p.HasHypertension())
}

func TestNormalize_Shapes(t *testing.T) {
	t.Run("nested object", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"idade":   "40",
			"sexo":    "F",
			"pressao": map[string]any{"sistolica": "150", "diastolica": 95},
		})
		require.NoError(t, err)
		require.NotNil(t, p.SystolicBP)
		require.NotNil(t, p.DiastolicBP)
		assert.Equal(t, 150.0, *p.SystolicBP)
		assert.Equal(t, 95.0, *p.DiastolicBP)
	})

	t.Run("blood pressure string", func(t *testing.T) {
		p, err := Normalize(map[string]any{"idade": 50, "sexo": "M", "pressao_arterial": "140/90"})
		require.NoError(t, err)
		require.NotNil(t, p.SystolicBP)
		assert.Equal(t, 140.0, *p.SystolicBP)
		assert.Equal(t, 90.0, *p.DiastolicBP)
	})

	t.Run("comorbidity string and checkboxes", func(t *testing.T) {
		p, err := Normalize(map[string]any{
			"idade":        60,
			"sexo":         "feminino",
			"comorbidades": "Hipertensão; DM2",
			"cardiopatia":  "on",
			"dpoc":         "off",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{ComorbidityCardiopathy, ComorbidityDiabetes, ComorbidityHypertension}, p.Comorbidities)
	})

	t.Run("absent comorbidities", func(t *testing.T) {
		p, err := Normalize(map[string]any{"idade": 30, "sexo": "M"})
		require.NoError(t, err)
		assert.Empty(t, p.Comorbidities)
		assert.Empty(t, p.Medications)
		assert.Equal(t, NEVER_SMOKER, p.Smoking)
	})

	t.Run("height in meters and BMI", func(t *testing.T) {
		p, err := Normalize(map[string]any{"idade": 30, "sexo": "M", "peso": "80", "altura": "1,60"})
		require.NoError(t, err)
		require.NotNil(t, p.HeightCm)
		assert.InDelta(t, 160.0, *p.HeightCm, 1e-9)
		bmi, ok := p.BMI()
		require.True(t, ok)
		assert.InDelta(t, 31.25, bmi, 1e-9)
	})

	t.Run("optional garbage degrades to absent", func(t *testing.T) {
		p, err := Normalize(map[string]any{"idade": 30, "sexo": "M", "hdl": "n/a", "peso": "", "creatinina": -2})
		require.NoError(t, err)
		assert.Nil(t, p.HDLCholesterol)
		assert.Nil(t, p.WeightKg)
		assert.Nil(t, p.Creatinine)
	})

	t.Run("pregnancy ignored for male", func(t *testing.T) {
		p, err := Normalize(map[string]any{"idade": 30, "sexo": "M", "gestante": "sim"})
		require.NoError(t, err)
		assert.False(t, p.IsPregnant)

		p, err = Normalize(map[string]any{"idade": 30, "sexo": "F", "gestante": "sim"})
		require.NoError(t, err)
		assert.True(t, p.IsPregnant)
	})

	t.Run("pack years from cigarettes", func(t *testing.T) {
		p, err := Normalize(map[string]any{"idade": 60, "sexo": "M", "cigarros_dia": 20, "anos_fumando": 30})
		require.NoError(t, err)
		assert.Equal(t, 30.0, p.PackYears)
	})

	t.Run("custom aliases", func(t *testing.T) {
		n := NewNormalizer(map[string][]string{FieldAge: {"Patient Age"}})
		p, err := n.Normalize(map[string]any{"patient age": 44, "sex": "f"})
		require.NoError(t, err)
		assert.Equal(t, 44, p.Age)
	})
}

func TestHasHypertension(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		profile PatientProfile
		want    bool
	}{
		{"normotensive", PatientProfile{SystolicBP: f(120), DiastolicBP: f(80)}, false},
		{"systolic above 130", PatientProfile{SystolicBP: f(131)}, true},
		{"systolic at 130", PatientProfile{SystolicBP: f(130)}, false},
		{"diastolic above 90", PatientProfile{DiastolicBP: f(95)}, true},
		{"comorbidity", PatientProfile{Comorbidities: []string{ComorbidityHypertension}}, true},
		{"resistant", PatientProfile{Comorbidities: []string{ComorbidityResistantHypertension}}, true},
		{"cardiopathy", PatientProfile{Comorbidities: []string{ComorbidityCardiopathy}}, true},
		{"medication", PatientProfile{Medications: []string{"losartana 50mg"}}, true},
		{"statin only", PatientProfile{Medications: []string{"sinvastatina 20mg"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.HasHypertension())
		})
	}
}

func TestMedicationDetection(t *testing.T) {
	p, err := Normalize(map[string]any{
		"idade":        58,
		"sexo":         "M",
		"medicamentos": "Losartana 50mg, Rosuvastatina 10mg",
	})
	require.NoError(t, err)
	assert.True(t, p.OnAntihypertensive())
	assert.True(t, p.OnStatin())
	assert.True(t, p.HasHypertension())
}
