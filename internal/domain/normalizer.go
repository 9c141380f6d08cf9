package domain

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical field names understood by the normalizer.
const (
	FieldPatientID        = "patient_id"
	FieldAge              = "age"
	FieldSex              = "sex"
	FieldWeight           = "weight"
	FieldHeight           = "height"
	FieldSystolic         = "systolic_bp"
	FieldDiastolic        = "diastolic_bp"
	FieldBloodPressure    = "blood_pressure"
	FieldTotalCholesterol = "total_cholesterol"
	FieldHDL              = "hdl_cholesterol"
	FieldCreatinine       = "creatinine"
	FieldSmoking          = "smoking"
	FieldPackYears        = "pack_years"
	FieldYearsSinceQuit   = "years_since_quit"
	FieldCigarettesPerDay = "cigarettes_per_day"
	FieldYearsSmoked      = "years_smoked"
	FieldComorbidities    = "comorbidities"
	FieldMedications      = "medications"
	FieldPregnant         = "pregnant"
)

// DefaultAliases maps each canonical field to the input keys that may carry
// it, in lookup order. Keys are compared after NormalizeKey.
var DefaultAliases = map[string][]string{
	FieldPatientID:        {"patient_id", "paciente_id", "id_paciente"},
	FieldAge:              {"age", "idade"},
	FieldSex:              {"sex", "sexo", "gender", "genero"},
	FieldWeight:           {"weight", "weight_kg", "peso", "peso_kg"},
	FieldHeight:           {"height", "height_cm", "altura", "altura_cm"},
	FieldSystolic:         {"systolic_bp", "systolic", "pas", "pressao_sistolica", "pa_sistolica", "sistolica"},
	FieldDiastolic:        {"diastolic_bp", "diastolic", "pad", "pressao_diastolica", "pa_diastolica", "diastolica"},
	FieldBloodPressure:    {"blood_pressure", "pressao_arterial", "pressao", "pa", "bp"},
	FieldTotalCholesterol: {"total_cholesterol", "total_cholesterol_mgdl", "colesterol_total", "colesterol", "ct"},
	FieldHDL:              {"hdl_cholesterol", "hdl_cholesterol_mgdl", "hdl_colesterol", "hdl", "colesterol_hdl"},
	FieldCreatinine:       {"creatinine", "creatinine_mgdl", "creatinina", "cr"},
	FieldSmoking:          {"smoking_status", "smoking", "tabagismo", "fumante", "fumo"},
	FieldPackYears:        {"pack_years", "macos_ano", "carga_tabagica"},
	FieldYearsSinceQuit:   {"years_since_quit", "anos_sem_fumar", "anos_parou"},
	FieldCigarettesPerDay: {"cigarettes_per_day", "cigarros_dia", "cigarros_por_dia"},
	FieldYearsSmoked:      {"years_smoked", "anos_fumando", "anos_tabagismo"},
	FieldComorbidities:    {"comorbidities", "comorbidades", "condicoes", "doencas"},
	FieldMedications:      {"medications", "medicamentos", "medicacoes", "remedios"},
	FieldPregnant:         {"is_pregnant", "pregnant", "gestante", "gravida"},
}

// comorbidityAliases maps cleaned input tokens to canonical comorbidities.
// Every key also works as a checkbox-style field ("hipertensao": "on").
var comorbidityAliases = map[string]string{
	"hipertensao":                    ComorbidityHypertension,
	"hipertensao_arterial":           ComorbidityHypertension,
	"hipertensao_arterial_sistemica": ComorbidityHypertension,
	"has":                            ComorbidityHypertension,
	"hipertenso":                     ComorbidityHypertension,
	"hypertension":                   ComorbidityHypertension,
	"pressao_alta":                   ComorbidityHypertension,
	"high_blood_pressure":            ComorbidityHypertension,
	"hipertensao_resistente":         ComorbidityResistantHypertension,
	"hipertensao_refrataria":         ComorbidityResistantHypertension,
	"has_resistente":                 ComorbidityResistantHypertension,
	"resistant_hypertension":         ComorbidityResistantHypertension,
	"cardiopatia":                    ComorbidityCardiopathy,
	"cardiopata":                     ComorbidityCardiopathy,
	"doenca_cardiaca":                ComorbidityCardiopathy,
	"insuficiencia_cardiaca":         ComorbidityCardiopathy,
	"heart_disease":                  ComorbidityCardiopathy,
	"heart_failure":                  ComorbidityCardiopathy,
	"cardiopathy":                    ComorbidityCardiopathy,
	"diabetes":                       ComorbidityDiabetes,
	"diabetico":                      ComorbidityDiabetes,
	"dm":                             ComorbidityDiabetes,
	"dm1":                            ComorbidityDiabetes,
	"dm2":                            ComorbidityDiabetes,
	"diabetes_mellitus":              ComorbidityDiabetes,
	"diabetes_tipo_1":                ComorbidityDiabetes,
	"diabetes_tipo_2":                ComorbidityDiabetes,
	"type_2_diabetes":                ComorbidityDiabetes,
	"dislipidemia":                   ComorbidityDyslipidemia,
	"dyslipidemia":                   ComorbidityDyslipidemia,
	"colesterol_alto":                ComorbidityDyslipidemia,
	"hipercolesterolemia":            ComorbidityDyslipidemia,
	"drc":                            ComorbidityChronicKidneyDisease,
	"doenca_renal":                   ComorbidityChronicKidneyDisease,
	"doenca_renal_cronica":           ComorbidityChronicKidneyDisease,
	"insuficiencia_renal":            ComorbidityChronicKidneyDisease,
	"ckd":                            ComorbidityChronicKidneyDisease,
	"chronic_kidney_disease":         ComorbidityChronicKidneyDisease,
	"dpoc":                           ComorbidityChronicLungDisease,
	"copd":                           ComorbidityChronicLungDisease,
	"asma":                           ComorbidityChronicLungDisease,
	"asthma":                         ComorbidityChronicLungDisease,
	"pneumopatia":                    ComorbidityChronicLungDisease,
	"doenca_pulmonar":                ComorbidityChronicLungDisease,
	"chronic_lung_disease":           ComorbidityChronicLungDisease,
	"dac":                            ComorbidityCoronaryDisease,
	"doenca_arterial_coronariana":    ComorbidityCoronaryDisease,
	"infarto":                        ComorbidityCoronaryDisease,
	"iam":                            ComorbidityCoronaryDisease,
	"coronary_disease":               ComorbidityCoronaryDisease,
	"coronary_artery_disease":        ComorbidityCoronaryDisease,
	"avc":                            ComorbidityStroke,
	"derrame":                        ComorbidityStroke,
	"stroke":                         ComorbidityStroke,
	"obesidade":                      ComorbidityObesity,
	"obeso":                          ComorbidityObesity,
	"obesity":                        ComorbidityObesity,
	"hepatopatia":                    ComorbidityLiverDisease,
	"doenca_hepatica":                ComorbidityLiverDisease,
	"cirrose":                        ComorbidityLiverDisease,
	"liver_disease":                  ComorbidityLiverDisease,
	"imunossupressao":                ComorbidityImmunosuppression,
	"imunossuprimido":                ComorbidityImmunosuppression,
	"immunosuppression":              ComorbidityImmunosuppression,
	"hiv":                            ComorbidityHIV,
	"hiv_positivo":                   ComorbidityHIV,
}

var smokingSynonyms = map[string]SmokingStatus{
	"never":           NEVER_SMOKER,
	"never smoker":    NEVER_SMOKER,
	"non smoker":      NEVER_SMOKER,
	"nonsmoker":       NEVER_SMOKER,
	"no":              NEVER_SMOKER,
	"nao":             NEVER_SMOKER,
	"nunca":           NEVER_SMOKER,
	"nunca fumou":     NEVER_SMOKER,
	"nao fumante":     NEVER_SMOKER,
	"nao tabagista":   NEVER_SMOKER,
	"current":         CURRENT_SMOKER,
	"current smoker":  CURRENT_SMOKER,
	"smoker":          CURRENT_SMOKER,
	"yes":             CURRENT_SMOKER,
	"sim":             CURRENT_SMOKER,
	"atual":           CURRENT_SMOKER,
	"fumante":         CURRENT_SMOKER,
	"fumante atual":   CURRENT_SMOKER,
	"tabagista":       CURRENT_SMOKER,
	"tabagista atual": CURRENT_SMOKER,
	"former":          FORMER_SMOKER,
	"former smoker":   FORMER_SMOKER,
	"ex smoker":       FORMER_SMOKER,
	"ex":              FORMER_SMOKER,
	"ex fumante":      FORMER_SMOKER,
	"exfumante":       FORMER_SMOKER,
	"ex tabagista":    FORMER_SMOKER,
	"parou":           FORMER_SMOKER,
	"parou de fumar":  FORMER_SMOKER,
}

var truthyTokens = map[string]struct{}{
	"on": {}, "true": {}, "1": {}, "sim": {}, "yes": {}, "s": {}, "y": {},
}

// Normalizer turns loosely shaped input maps into PatientProfile values.
// It holds only read-only tables and is safe for concurrent use.
type Normalizer struct {
	aliases map[string][]string
}

// NewNormalizer creates a normalizer. A nil alias table selects DefaultAliases;
// a partial table overrides only the fields it names.
func NewNormalizer(aliases map[string][]string) *Normalizer {
	merged := make(map[string][]string, len(DefaultAliases))
	for field, keys := range DefaultAliases {
		merged[field] = keys
	}
	for field, keys := range aliases {
		normalized := make([]string, 0, len(keys))
		for _, k := range keys {
			normalized = append(normalized, NormalizeKey(k))
		}
		merged[field] = normalized
	}
	return &Normalizer{aliases: merged}
}

// Normalize builds a profile with the default alias table.
func Normalize(raw map[string]any) (PatientProfile, error) {
	return defaultNormalizer.Normalize(raw)
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize parses raw into a PatientProfile. Only a missing or unparseable
// age or sex is an error; every optional field degrades to absent.
func (n *Normalizer) Normalize(raw map[string]any) (PatientProfile, error) {
	var p PatientProfile
	flat := flatten(raw)

	ageRaw, ok := n.lookup(flat, FieldAge)
	if !ok {
		return p, NewValidationError(FieldAge, "age is required", nil)
	}
	age, ok := ParseNumber(ageRaw)
	if !ok {
		return p, NewValidationError(FieldAge, "age must be numeric", ageRaw)
	}
	if age < 0 || age > 130 {
		return p, NewValidationError(FieldAge, "age out of range", ageRaw)
	}
	p.Age = int(math.Floor(age))

	sexRaw, ok := n.lookup(flat, FieldSex)
	if !ok {
		return p, NewValidationError(FieldSex, "sex is required", nil)
	}
	sex, ok := ParseSex(sexRaw)
	if !ok {
		return p, NewValidationError(FieldSex, "sex must be male or female", sexRaw)
	}
	p.Sex = sex

	if v, ok := n.lookup(flat, FieldPatientID); ok {
		if s := strings.TrimSpace(stringify(v)); s != "" {
			p.PatientID = s
		}
	}

	p.WeightKg = n.positive(flat, FieldWeight)
	if h := n.positive(flat, FieldHeight); h != nil {
		if *h < 3 {
			m := *h * 100
			h = &m
		}
		p.HeightCm = h
	}

	n.readPressures(flat, &p)
	p.TotalCholesterol = n.positive(flat, FieldTotalCholesterol)
	p.HDLCholesterol = n.positive(flat, FieldHDL)
	p.Creatinine = n.positive(flat, FieldCreatinine)

	smokingRaw, _ := n.lookup(flat, FieldSmoking)
	p.Smoking = NormalizeSmoking(smokingRaw)
	p.PackYears = n.packYears(flat)
	if v, ok := n.lookup(flat, FieldYearsSinceQuit); ok {
		if f, ok := ParseNumber(v); ok && f >= 0 {
			p.YearsSinceQuit = &f
		}
	}

	p.Comorbidities = n.comorbidities(flat)
	if v, ok := n.lookup(flat, FieldMedications); ok {
		p.Medications = medicationTokens(v)
	}
	if p.Medications == nil {
		p.Medications = []string{}
	}

	if v, ok := n.lookup(flat, FieldPregnant); ok {
		p.IsPregnant = p.Sex == FEMALE && IsTruthy(v)
	}

	return p, nil
}

func (n *Normalizer) lookup(flat map[string]any, field string) (any, bool) {
	for _, key := range n.aliases[field] {
		v, ok := flat[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (n *Normalizer) positive(flat map[string]any, field string) *float64 {
	v, ok := n.lookup(flat, field)
	if !ok {
		return nil
	}
	f, ok := ParseNumber(v)
	if !ok || f <= 0 {
		return nil
	}
	return &f
}

func (n *Normalizer) readPressures(flat map[string]any, p *PatientProfile) {
	if v, ok := n.lookup(flat, FieldSystolic); ok {
		if s, isString := v.(string); isString && strings.ContainsAny(s, "/xX") {
			if sys, dia, ok := ParseBloodPressure(s); ok {
				p.SystolicBP, p.DiastolicBP = &sys, &dia
			}
		} else if f, ok := ParseNumber(v); ok && f > 0 {
			p.SystolicBP = &f
		}
	}
	if p.DiastolicBP == nil {
		p.DiastolicBP = n.positive(flat, FieldDiastolic)
	}
	if p.SystolicBP != nil && p.DiastolicBP != nil {
		return
	}
	if v, ok := n.lookup(flat, FieldBloodPressure); ok {
		if sys, dia, ok := ParseBloodPressure(stringify(v)); ok {
			if p.SystolicBP == nil {
				p.SystolicBP = &sys
			}
			if p.DiastolicBP == nil {
				p.DiastolicBP = &dia
			}
		}
	}
}

func (n *Normalizer) packYears(flat map[string]any) float64 {
	if v, ok := n.lookup(flat, FieldPackYears); ok {
		if f, ok := ParseNumber(v); ok && f > 0 {
			return f
		}
		return 0
	}
	cpd := n.positive(flat, FieldCigarettesPerDay)
	years := n.positive(flat, FieldYearsSmoked)
	if cpd == nil || years == nil {
		return 0
	}
	return math.Round(*cpd/20**years*10) / 10
}

func (n *Normalizer) comorbidities(flat map[string]any) []string {
	set := make(map[string]struct{})
	if v, ok := n.lookup(flat, FieldComorbidities); ok {
		for _, tok := range tokenList(v) {
			set[CanonicalComorbidity(tok)] = struct{}{}
		}
	}
	for key, canonical := range comorbidityAliases {
		if v, ok := flat[key]; ok && IsTruthy(v) {
			set[canonical] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tok := range set {
		if tok != "" {
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// CanonicalComorbidity maps a free-form comorbidity token to its canonical
// name. Unknown tokens are returned cleaned but otherwise unchanged.
func CanonicalComorbidity(token string) string {
	cleaned := cleanToken(token)
	if canonical, ok := comorbidityAliases[cleaned]; ok {
		return canonical
	}
	return cleaned
}

// NormalizeSmoking maps free-form smoking input to a canonical status.
// Unrecognized, empty and nil input yields NEVER_SMOKER.
func NormalizeSmoking(v any) SmokingStatus {
	switch t := v.(type) {
	case nil:
		return NEVER_SMOKER
	case bool:
		if t {
			return CURRENT_SMOKER
		}
		return NEVER_SMOKER
	case SmokingStatus:
		return NormalizeSmoking(string(t))
	case string:
		return smokingFromText(t)
	default:
		if IsTruthy(t) {
			return CURRENT_SMOKER
		}
		return NEVER_SMOKER
	}
}

func smokingFromText(s string) SmokingStatus {
	phrase := cleanPhrase(s)
	if phrase == "" {
		return NEVER_SMOKER
	}
	// Checkbox posts such as fumante=on
	if _, ok := truthyTokens[phrase]; ok {
		return CURRENT_SMOKER
	}
	if status, ok := smokingSynonyms[phrase]; ok {
		return status
	}
	switch {
	case strings.Contains(phrase, "fum") && strings.Contains(phrase, "ex"):
		return FORMER_SMOKER
	case strings.Contains(phrase, "former"), strings.Contains(phrase, "ex smoker"), strings.Contains(phrase, "parou"):
		return FORMER_SMOKER
	case strings.HasPrefix(phrase, "nao "), strings.HasPrefix(phrase, "never"), strings.HasPrefix(phrase, "non "):
		return NEVER_SMOKER
	case strings.Contains(phrase, "fumante"), strings.Contains(phrase, "smoker"),
		strings.Contains(phrase, "atual"), strings.Contains(phrase, "current"),
		strings.Contains(phrase, "tabagista"):
		return CURRENT_SMOKER
	}
	return NEVER_SMOKER
}

// IsTruthy reports checkbox-style truth: true, 1, "on", "sim", "yes",
// "true", "s" and "y". Everything else is false.
func IsTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		_, ok := truthyTokens[cleanPhrase(t)]
		return ok
	default:
		f, ok := numericValue(t)
		return ok && f == 1
	}
}

// ParseSex maps the accepted spellings of male and female.
func ParseSex(v any) (Sex, bool) {
	s, ok := v.(string)
	if !ok {
		if sx, isSex := v.(Sex); isSex {
			s = string(sx)
		} else {
			return "", false
		}
	}
	switch cleanPhrase(s) {
	case "m", "male", "masculino", "homem", "h", "man":
		return MALE, true
	case "f", "female", "feminino", "mulher", "woman":
		return FEMALE, true
	default:
		return "", false
	}
}

// ParseNumber accepts numeric types and numeric strings, including decimal
// comma ("120,5") and thousands separators ("1.234,5"). A trailing unit
// ("1,0 mg/dL") is ignored.
func ParseNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		return parseNumericString(s)
	}
	return numericValue(v)
}

func numericValue(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case float32:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	num := s[:end]
	if num == "" || strings.Trim(num, "+-.,") == "" {
		return 0, false
	}

	commas := strings.Count(num, ",")
	dots := strings.Count(num, ".")
	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(num, ",") > strings.LastIndex(num, ".") {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case commas == 1:
		num = strings.Replace(num, ",", ".", 1)
	case commas > 1:
		num = strings.ReplaceAll(num, ",", "")
	case dots > 1:
		num = strings.ReplaceAll(num, ".", "")
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseBloodPressure parses "140/90" or "140x90".
func ParseBloodPressure(s string) (systolic, diastolic float64, ok bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == 'x' || r == 'X' })
	if len(parts) != 2 {
		return 0, 0, false
	}
	sys, okS := parseNumericString(parts[0])
	dia, okD := parseNumericString(parts[1])
	if !okS || !okD || sys <= 0 || dia <= 0 {
		return 0, 0, false
	}
	return sys, dia, true
}

// NormalizeKey folds accents and case and joins words with underscores.
func NormalizeKey(k string) string {
	return cleanToken(k)
}

// FoldText strips diacritics and lower-cases s.
func FoldText(s string) string {
	// transform chains are stateful, so one is built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// cleanPhrase folds s and replaces punctuation with single spaces.
func cleanPhrase(s string) string {
	folded := FoldText(s)
	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// cleanToken is cleanPhrase joined with underscores.
func cleanToken(s string) string {
	return strings.ReplaceAll(cleanPhrase(s), " ", "_")
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		if f, ok := numericValue(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return ""
	}
}

// tokenList accepts a comma/semicolon separated string, a list, or a
// checkbox map and returns the raw tokens.
func tokenList(v any) []string {
	switch t := v.(type) {
	case string:
		return strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ';' || r == '\n' })
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, tokenList(s)...)
			}
		}
		return out
	case map[string]any:
		out := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			if IsTruthy(t[k]) {
				out = append(out, k)
			}
		}
		return out
	default:
		return nil
	}
}

func medicationTokens(v any) []string {
	set := make(map[string]struct{})
	for _, tok := range tokenList(v) {
		if folded := FoldText(tok); folded != "" {
			set[folded] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tok := range set {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// flatten normalizes keys and lifts nested objects. A nested key is
// reachable both as parent_child and, if not already taken, as child.
// Keys are visited in sorted order so collisions resolve deterministically.
func flatten(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	keys := sortedKeys(raw)
	for _, k := range keys {
		nk := NormalizeKey(k)
		if _, exists := out[nk]; !exists {
			out[nk] = raw[k]
		}
	}
	for _, k := range keys {
		nested, ok := raw[k].(map[string]any)
		if !ok {
			continue
		}
		prefix := NormalizeKey(k)
		child := flatten(nested)
		for _, ck := range sortedKeys(child) {
			if full := prefix + "_" + ck; !has(out, full) {
				out[full] = child[ck]
			}
		}
		for _, ck := range sortedKeys(child) {
			if !has(out, ck) {
				out[ck] = child[ck]
			}
		}
	}
	return out
}

func has(m map[string]any, k string) bool {
	_, ok := m[k]
	return ok
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
