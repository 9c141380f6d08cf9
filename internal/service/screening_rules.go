package service

import (
	"github.com/screening-engine/internal/domain"
)

// Guideline citations shared by several rules.
const (
	citeUSPSTFBreast     = "USPSTF 2024"
	citeUSPSTFCervical   = "USPSTF 2018"
	citeUSPSTFColorectal = "USPSTF 2021"
	citeUSPSTFProstate   = "USPSTF 2018"
	citeUSPSTFLung       = "USPSTF 2021"
	citeUSPSTFHIV        = "USPSTF 2019"
	citeUSPSTFHCV        = "USPSTF 2020"
	citeUSPSTFBone       = "USPSTF 2018"
	citeUSPSTFAAA        = "USPSTF 2019"
	citeDiabetesScreen   = "ADA 2024/USPSTF 2021"
	citeLipids           = "AHA/ACC 2018"
	citeHypertension     = "SBC 2020/AHA/ACC 2017"
	citeResistantHTN     = "AHA 2018"
	citeDiabetesCare     = "ADA 2024"
	citeLiver            = "AASLD 2023"
	citePrenatal         = "FEBRASGO/MS 2022"
	citeInfluenza        = "SBIm/ANVISA 2024"
	citeSBIm             = "SBIm 2024"
	citeSBImCDC          = "SBIm/CDC 2024"
	citeCOVID            = "MS 2024"
	citeMaternalTdap     = "SBIm/FEBRASGO 2024"
	citeRiskEnhancers    = "AHA/ACC 2019"
)

// initializeRules registers the built-in rules. Order is the emission
// order of candidates and is part of the output contract.
func (e *ScreeningRuleEngine) initializeRules() {
	// Cancer screening
	e.addRule(&ScreeningRule{ID: "breast_mammography", Name: "Breast cancer screening", Family: FamilyCancer,
		Description: "Biennial mammography for women aged 40-74", Evaluator: ruleMammography})
	e.addRule(&ScreeningRule{ID: "cervical_cytology", Name: "Cervical cytology", Family: FamilyCancer,
		Description: "Cytology every 3 years for women aged 21-29", Evaluator: ruleCervicalCytology})
	e.addRule(&ScreeningRule{ID: "cervical_hpv", Name: "Cervical HPV testing", Family: FamilyCancer,
		Description: "HPV testing or co-testing for women aged 30-65", Evaluator: ruleCervicalHPV})
	e.addRule(&ScreeningRule{ID: "colorectal_45_75", Name: "Colorectal cancer screening 45-75", Family: FamilyCancer,
		Description: "Routine colorectal screening for adults aged 45-75", Evaluator: ruleColorectal45to75})
	e.addRule(&ScreeningRule{ID: "colorectal_76_85", Name: "Colorectal cancer screening 76-85", Family: FamilyCancer,
		Description: "Individualized colorectal screening for adults aged 76-85", Evaluator: ruleColorectal76to85})
	e.addRule(&ScreeningRule{ID: "prostate_psa", Name: "Prostate cancer screening", Family: FamilyCancer,
		Description: "Shared decision on PSA for men aged 55-69", Evaluator: ruleProstatePSA})
	e.addRule(&ScreeningRule{ID: "lung_ldct", Name: "Lung cancer screening", Family: FamilyCancer,
		Description: "Low-dose CT for ages 50-80 with >= 20 pack-years, current or quit within 15 years", Evaluator: ruleLungLDCT})

	// Infectious disease screening
	e.addRule(&ScreeningRule{ID: "hiv_screening", Name: "HIV screening", Family: FamilyInfectious,
		Description: "HIV screening for adults up to 65", Evaluator: ruleHIV})
	e.addRule(&ScreeningRule{ID: "hcv_screening", Name: "Hepatitis C screening", Family: FamilyInfectious,
		Description: "Hepatitis C screening for adults aged 18-79", Evaluator: ruleHCV})

	// Metabolic and other screening
	e.addRule(&ScreeningRule{ID: "diabetes_screening", Name: "Diabetes screening", Family: FamilyMetabolic,
		Description: "Glucose or HbA1c for non-diabetic adults aged 35+ or overweight", Evaluator: ruleDiabetesScreening})
	e.addRule(&ScreeningRule{ID: "lipid_profile", Name: "Lipid profile", Family: FamilyMetabolic,
		Description: "Lipid profile for adults aged 20+", Evaluator: ruleLipidProfile})
	e.addRule(&ScreeningRule{ID: "osteoporosis_dxa", Name: "Osteoporosis screening", Family: FamilyMetabolic,
		Description: "Bone densitometry for women aged 65+", Evaluator: ruleOsteoporosis})
	e.addRule(&ScreeningRule{ID: "aaa_ultrasound", Name: "Abdominal aortic aneurysm screening", Family: FamilyMetabolic,
		Description: "One-time ultrasound for men aged 65-75 who ever smoked", Evaluator: ruleAAA})
	e.addRule(&ScreeningRule{ID: "liver_enzymes", Name: "Fatty liver screening", Family: FamilyMetabolic,
		Description: "Transaminases for adults with obesity or diabetes", Evaluator: ruleLiverEnzymes})

	// Hypertension work-up panel
	e.addRule(&ScreeningRule{ID: "htn_creatinine", Name: "Hypertension panel: renal function", Family: FamilyHypertension,
		Description: "Creatinine and eGFR for hypertensive patients", Evaluator: ruleHTNCreatinine})
	e.addRule(&ScreeningRule{ID: "htn_potassium", Name: "Hypertension panel: potassium", Family: FamilyHypertension,
		Description: "Serum potassium for hypertensive patients", Evaluator: ruleHTNPotassium})
	e.addRule(&ScreeningRule{ID: "htn_urinalysis", Name: "Hypertension panel: urinalysis", Family: FamilyHypertension,
		Description: "Urinalysis for hypertensive patients", Evaluator: ruleHTNUrinalysis})
	e.addRule(&ScreeningRule{ID: "htn_ecg", Name: "Hypertension panel: ECG", Family: FamilyHypertension,
		Description: "Resting ECG for hypertensive patients", Evaluator: ruleHTNECG})
	e.addRule(&ScreeningRule{ID: "htn_lipid_profile", Name: "Hypertension panel: lipids", Family: FamilyHypertension,
		Description: "Lipid profile with high priority for hypertensive patients", Evaluator: ruleHTNLipids})

	// Resistant hypertension secondary causes
	e.addRule(&ScreeningRule{ID: "rht_aldosterone_renin", Name: "Resistant hypertension: aldosterone/renin", Family: FamilyHypertension,
		Description: "Primary aldosteronism screening", Evaluator: ruleAldosteroneRenin})
	e.addRule(&ScreeningRule{ID: "rht_polysomnography", Name: "Resistant hypertension: sleep apnea", Family: FamilyHypertension,
		Description: "Polysomnography for obstructive sleep apnea", Evaluator: rulePolysomnography})
	e.addRule(&ScreeningRule{ID: "rht_renal_doppler", Name: "Resistant hypertension: renovascular", Family: FamilyHypertension,
		Description: "Renal artery Doppler for renovascular hypertension", Evaluator: ruleRenalDoppler})

	// Diabetes follow-up
	e.addRule(&ScreeningRule{ID: "dm_hba1c", Name: "Diabetes follow-up: HbA1c", Family: FamilyDiabetes,
		Description: "Glycated hemoglobin for diabetic patients", Evaluator: ruleDiabetesHbA1c})
	e.addRule(&ScreeningRule{ID: "dm_albuminuria", Name: "Diabetes follow-up: albuminuria", Family: FamilyDiabetes,
		Description: "Urine albumin-to-creatinine ratio for diabetic patients", Evaluator: ruleDiabetesAlbuminuria})
	e.addRule(&ScreeningRule{ID: "dm_retinography", Name: "Diabetes follow-up: retinopathy", Family: FamilyDiabetes,
		Description: "Retinal examination for diabetic patients", Evaluator: ruleDiabetesRetinography})

	// Prenatal
	e.addRule(&ScreeningRule{ID: "prenatal_serologies", Name: "Prenatal serologies", Family: FamilyPrenatal,
		Description: "Prenatal infectious serologies", Evaluator: rulePrenatalSerologies})
	e.addRule(&ScreeningRule{ID: "prenatal_ultrasound", Name: "Obstetric ultrasound", Family: FamilyPrenatal,
		Description: "Obstetric ultrasound during pregnancy", Evaluator: rulePrenatalUltrasound})

	// Vaccination schedule
	e.addRule(&ScreeningRule{ID: "vaccine_influenza", Name: "Influenza vaccine", Family: FamilyVaccine,
		Description: "Annual influenza vaccine, high priority for 60+ or pregnant", Evaluator: ruleInfluenza})
	e.addRule(&ScreeningRule{ID: "vaccine_dt", Name: "Diphtheria/tetanus booster", Family: FamilyVaccine,
		Description: "dT/dTpa booster every 10 years for adults", Evaluator: ruleTetanus})
	e.addRule(&ScreeningRule{ID: "vaccine_hepatitis_b", Name: "Hepatitis B vaccine", Family: FamilyVaccine,
		Description: "Hepatitis B vaccine for adults aged 18-59", Evaluator: ruleHepatitisBVaccine})
	e.addRule(&ScreeningRule{ID: "vaccine_hpv", Name: "HPV vaccine", Family: FamilyVaccine,
		Description: "HPV vaccine for ages 9-45", Evaluator: ruleHPVVaccine})
	e.addRule(&ScreeningRule{ID: "vaccine_pneumococcal", Name: "Pneumococcal vaccine", Family: FamilyVaccine,
		Description: "Pneumococcal vaccine for 60+ or adults with risk conditions", Evaluator: rulePneumococcal})
	e.addRule(&ScreeningRule{ID: "vaccine_zoster", Name: "Herpes zoster vaccine", Family: FamilyVaccine,
		Description: "Recombinant zoster vaccine for 50+ or immunosuppressed adults", Evaluator: ruleZoster})
	e.addRule(&ScreeningRule{ID: "vaccine_rsv", Name: "RSV vaccine", Family: FamilyVaccine,
		Description: "Respiratory syncytial virus vaccine for 60+", Evaluator: ruleRSV})
	e.addRule(&ScreeningRule{ID: "vaccine_covid19", Name: "COVID-19 vaccine", Family: FamilyVaccine,
		Description: "COVID-19 vaccine, high priority for 60+, pregnant or immunosuppressed", Evaluator: ruleCOVID})
	e.addRule(&ScreeningRule{ID: "vaccine_maternal_tdap", Name: "Maternal dTpa", Family: FamilyVaccine,
		Description: "dTpa in every pregnancy", Evaluator: ruleMaternalTdap})

	// Risk-category escalation
	e.addRule(&ScreeningRule{ID: "risk_lpa", Name: "Lipoprotein(a)", Family: FamilyRiskGated, RiskGated: true,
		Description: "Lp(a) at borderline, intermediate or high risk", Evaluator: ruleLpA})
	e.addRule(&ScreeningRule{ID: "risk_hscrp", Name: "High-sensitivity CRP", Family: FamilyRiskGated, RiskGated: true,
		Description: "hsCRP at borderline or intermediate risk", Evaluator: ruleHsCRP})
	e.addRule(&ScreeningRule{ID: "risk_cac", Name: "Coronary artery calcium", Family: FamilyRiskGated, RiskGated: true,
		Description: "CAC score at borderline or intermediate risk", Evaluator: ruleCAC})
	e.addRule(&ScreeningRule{ID: "risk_abi", Name: "Ankle-brachial index", Family: FamilyRiskGated, RiskGated: true,
		Description: "ABI at intermediate or high risk", Evaluator: ruleABI})
}

func ruleMammography(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsFemale() || !p.AgeBetween(40, 74) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Mamografia de rastreamento",
		Category:      domain.IMAGING,
		Priority:      domain.HIGH,
		Citation:      citeUSPSTFBreast,
		Subtitle:      "Bienal, 40 a 74 anos",
		EvidenceGrade: "B",
		Description:   "Rastreamento de câncer de mama com mamografia a cada 2 anos.",
	}
}

func ruleCervicalCytology(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsFemale() || !p.AgeBetween(21, 29) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Citologia oncótica (Papanicolau)",
		Category:      domain.LAB,
		Priority:      domain.HIGH,
		Citation:      citeUSPSTFCervical,
		Subtitle:      "A cada 3 anos",
		EvidenceGrade: "A",
		Description:   "Rastreamento de câncer do colo do útero por citologia.",
	}
}

func ruleCervicalHPV(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsFemale() || !p.AgeBetween(30, 65) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Teste de HPV oncogênico ou co-teste",
		Category:      domain.LAB,
		Priority:      domain.HIGH,
		Citation:      citeUSPSTFCervical,
		Subtitle:      "HPV a cada 5 anos ou citologia a cada 3 anos",
		EvidenceGrade: "A",
		Description:   "Rastreamento de câncer do colo do útero por teste de HPV de alto risco.",
	}
}

func ruleColorectal45to75(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.AgeBetween(45, 75) {
		return nil
	}
	grade := "A"
	if p.Age < 50 {
		grade = "B"
	}
	return &domain.Recommendation{
		Title:         "Rastreamento de câncer colorretal (45-75 anos)",
		Category:      domain.LAB,
		Priority:      domain.HIGH,
		Citation:      citeUSPSTFColorectal,
		Subtitle:      "Sangue oculto anual ou colonoscopia a cada 10 anos",
		EvidenceGrade: grade,
		Description:   "Pesquisa de sangue oculto nas fezes (FIT) anual ou colonoscopia.",
	}
}

func ruleColorectal76to85(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.AgeBetween(76, 85) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Rastreamento de câncer colorretal (76-85 anos)",
		Category:      domain.LAB,
		Priority:      domain.LOW,
		Citation:      citeUSPSTFColorectal,
		Subtitle:      "Decisão individualizada",
		EvidenceGrade: "C",
		Description:   "Considerar estado de saúde e rastreamentos prévios.",
	}
}

func ruleProstatePSA(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsMale() || !p.AgeBetween(55, 69) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "PSA (decisão compartilhada)",
		Category:      domain.LAB,
		Priority:      domain.MEDIUM,
		Citation:      citeUSPSTFProstate,
		Subtitle:      "Discutir benefícios e riscos",
		EvidenceGrade: "C",
		Description:   "Rastreamento de câncer de próstata mediante decisão compartilhada.",
	}
}

// ruleLungLDCT treats a former smoker with unknown quit time as eligible.
func ruleLungLDCT(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.AgeBetween(50, 80) || p.PackYears < 20 {
		return nil
	}
	switch p.Smoking {
	case domain.CURRENT_SMOKER:
	case domain.FORMER_SMOKER:
		if p.YearsSinceQuit != nil && *p.YearsSinceQuit > 15 {
			return nil
		}
	default:
		return nil
	}
	return &domain.Recommendation{
		Title:         "Tomografia de tórax de baixa dose (rastreamento de câncer de pulmão)",
		Category:      domain.IMAGING,
		Priority:      domain.HIGH,
		Citation:      citeUSPSTFLung,
		Subtitle:      "Anual",
		EvidenceGrade: "B",
		Description:   "Tomografia computadorizada de baixa dose anual.",
	}
}

// ruleHIV applies the 15-65 window only to adults.
func ruleHIV(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsAdult() || !p.AgeBetween(15, 65) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Sorologia anti-HIV",
		Category:      domain.LAB,
		Priority:      domain.MEDIUM,
		Citation:      citeUSPSTFHIV,
		Subtitle:      "Ao menos uma vez na vida",
		EvidenceGrade: "A",
	}
}

func ruleHCV(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.AgeBetween(18, 79) {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Sorologia anti-HCV (hepatite C)",
		Category:      domain.LAB,
		Priority:      domain.MEDIUM,
		Citation:      citeUSPSTFHCV,
		Subtitle:      "Ao menos uma vez na vida",
		EvidenceGrade: "B",
	}
}

func ruleDiabetesScreening(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if p.HasDiabetes() || !p.IsAdult() {
		return nil
	}
	var priority domain.Priority
	switch {
	case p.AgeBetween(35, 70) && p.BMIAtLeast(25):
		priority = domain.HIGH
	case p.Age >= 35:
		priority = domain.MEDIUM
	default:
		return nil
	}
	return &domain.Recommendation{
		Title:         "Glicemia de jejum e hemoglobina glicada",
		Category:      domain.LAB,
		Priority:      priority,
		Citation:      citeDiabetesScreen,
		Subtitle:      "A cada 3 anos se normal",
		EvidenceGrade: "B",
		Description:   "Rastreamento de pré-diabetes e diabetes tipo 2.",
	}
}

func ruleLipidProfile(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if p.Age < 20 {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Perfil lipídico",
		Category:      domain.LAB,
		Priority:      domain.MEDIUM,
		Citation:      citeLipids,
		Subtitle:      "A cada 4 a 6 anos",
		EvidenceGrade: "I",
	}
}

func ruleOsteoporosis(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsFemale() || p.Age < 65 {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Densitometria óssea (DXA)",
		Category:      domain.IMAGING,
		Priority:      domain.MEDIUM,
		Citation:      citeUSPSTFBone,
		EvidenceGrade: "B",
		Description:   "Rastreamento de osteoporose.",
	}
}

func ruleAAA(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsMale() || !p.AgeBetween(65, 75) || !p.Smoking.EverSmoked() {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Ultrassonografia de aorta abdominal",
		Category:      domain.IMAGING,
		Priority:      domain.MEDIUM,
		Citation:      citeUSPSTFAAA,
		Subtitle:      "Exame único",
		EvidenceGrade: "B",
		Description:   "Rastreamento de aneurisma de aorta abdominal.",
	}
}

func ruleLiverEnzymes(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsAdult() {
		return nil
	}
	if !p.BMIAtLeast(30) && !p.HasAnyComorbidity(domain.ComorbidityDiabetes, domain.ComorbidityObesity) {
		return nil
	}
	return &domain.Recommendation{
		Title:       "Transaminases (TGO/TGP)",
		Category:    domain.LAB,
		Priority:    domain.LOW,
		Citation:    citeLiver,
		Description: "Avaliação de doença hepática esteatótica metabólica.",
	}
}

func hypertensionPanelItem(p domain.PatientProfile, title string, category domain.RecommendationCategory) *domain.Recommendation {
	if !p.HasHypertension() {
		return nil
	}
	return &domain.Recommendation{
		Title:    title,
		Category: category,
		Priority: domain.HIGH,
		Citation: citeHypertension,
		Subtitle: "Avaliação inicial e anual do hipertenso",
	}
}

func ruleHTNCreatinine(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return hypertensionPanelItem(p, "Creatinina sérica e taxa de filtração glomerular", domain.LAB)
}

func ruleHTNPotassium(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return hypertensionPanelItem(p, "Potássio sérico", domain.LAB)
}

func ruleHTNUrinalysis(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return hypertensionPanelItem(p, "Urina tipo 1 (EAS)", domain.LAB)
}

func ruleHTNECG(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return hypertensionPanelItem(p, "Eletrocardiograma de repouso", domain.IMAGING)
}

// ruleHTNLipids shares its identity with ruleLipidProfile so the two merge
// with the higher priority.
func ruleHTNLipids(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.HasHypertension() {
		return nil
	}
	return &domain.Recommendation{
		Title:         "Perfil lipídico",
		Category:      domain.LAB,
		Priority:      domain.HIGH,
		Citation:      citeLipids,
		Subtitle:      "Anual no paciente hipertenso",
		EvidenceGrade: "I",
	}
}

func resistantPanelItem(p domain.PatientProfile, title string, category domain.RecommendationCategory, priority domain.Priority, description string) *domain.Recommendation {
	if !p.HasResistantHypertension() {
		return nil
	}
	return &domain.Recommendation{
		Title:       title,
		Category:    category,
		Priority:    priority,
		Citation:    citeResistantHTN,
		Subtitle:    "Investigação de hipertensão secundária",
		Description: description,
	}
}

func ruleAldosteroneRenin(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return resistantPanelItem(p, "Relação aldosterona/renina", domain.LAB, domain.HIGH,
		"Rastreamento de hiperaldosteronismo primário.")
}

func rulePolysomnography(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return resistantPanelItem(p, "Polissonografia", domain.IMAGING, domain.MEDIUM,
		"Investigação de apneia obstrutiva do sono.")
}

func ruleRenalDoppler(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return resistantPanelItem(p, "Doppler de artérias renais", domain.IMAGING, domain.MEDIUM,
		"Investigação de estenose de artéria renal.")
}

func diabetesFollowUp(p domain.PatientProfile, title string, category domain.RecommendationCategory, priority domain.Priority, subtitle string) *domain.Recommendation {
	if !p.HasDiabetes() {
		return nil
	}
	return &domain.Recommendation{
		Title:         title,
		Category:      category,
		Priority:      priority,
		Citation:      citeDiabetesCare,
		Subtitle:      subtitle,
		EvidenceGrade: "B",
	}
}

func ruleDiabetesHbA1c(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return diabetesFollowUp(p, "Hemoglobina glicada (HbA1c)", domain.LAB, domain.HIGH, "A cada 3 a 6 meses")
}

func ruleDiabetesAlbuminuria(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return diabetesFollowUp(p, "Relação albumina/creatinina urinária", domain.LAB, domain.HIGH, "Anual")
}

func ruleDiabetesRetinography(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	return diabetesFollowUp(p, "Retinografia ou fundo de olho", domain.IMAGING, domain.MEDIUM, "Anual")
}

func rulePrenatalSerologies(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsPregnant {
		return nil
	}
	return &domain.Recommendation{
		Title:       "Sorologias pré-natais (HIV, sífilis, hepatites B e C, toxoplasmose)",
		Category:    domain.LAB,
		Priority:    domain.HIGH,
		Citation:    citePrenatal,
		Subtitle:    "Primeiro e terceiro trimestres",
		Description: "Triagem infecciosa do pré-natal.",
	}
}

func rulePrenatalUltrasound(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsPregnant {
		return nil
	}
	return &domain.Recommendation{
		Title:    "Ultrassonografia obstétrica",
		Category: domain.IMAGING,
		Priority: domain.HIGH,
		Citation: citePrenatal,
		Subtitle: "Primeiro trimestre e morfológico",
	}
}

func ruleInfluenza(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	priority := domain.MEDIUM
	if p.Age >= 60 || p.IsPregnant {
		priority = domain.HIGH
	}
	return &domain.Recommendation{
		Title:    "Vacina Influenza (anual)",
		Category: domain.VACCINE,
		Priority: priority,
		Citation: citeInfluenza,
		Subtitle: "Dose anual",
	}
}

func ruleTetanus(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsAdult() || p.IsPregnant {
		return nil
	}
	return &domain.Recommendation{
		Title:    "Vacina dT/dTpa (reforço)",
		Category: domain.VACCINE,
		Priority: domain.MEDIUM,
		Citation: citeSBIm,
		Subtitle: "Reforço a cada 10 anos",
	}
}

func ruleHepatitisBVaccine(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.AgeBetween(18, 59) {
		return nil
	}
	return &domain.Recommendation{
		Title:    "Vacina Hepatite B",
		Category: domain.VACCINE,
		Priority: domain.MEDIUM,
		Citation: citeSBImCDC,
		Subtitle: "Três doses se não vacinado",
	}
}

func ruleHPVVaccine(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.AgeBetween(9, 45) {
		return nil
	}
	priority := domain.LOW
	if p.Age <= 26 {
		priority = domain.MEDIUM
	}
	return &domain.Recommendation{
		Title:    "Vacina HPV",
		Category: domain.VACCINE,
		Priority: priority,
		Citation: citeSBIm,
	}
}

var pneumococcalRiskConditions = []string{
	domain.ComorbidityChronicLungDisease,
	domain.ComorbidityCardiopathy,
	domain.ComorbidityDiabetes,
	domain.ComorbidityChronicKidneyDisease,
	domain.ComorbidityLiverDisease,
	domain.ComorbidityImmunosuppression,
	domain.ComorbidityHIV,
}

func rulePneumococcal(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	priority := domain.HIGH
	switch {
	case p.Age >= 60:
	case p.IsAdult() && (p.HasAnyComorbidity(pneumococcalRiskConditions...) || p.Smoking == domain.CURRENT_SMOKER):
		priority = domain.MEDIUM
	default:
		return nil
	}
	return &domain.Recommendation{
		Title:    "Vacina pneumocócica",
		Category: domain.VACCINE,
		Priority: priority,
		Citation: citeSBImCDC,
		Subtitle: "VPC20, ou VPC15 seguida de VPP23",
	}
}

func ruleZoster(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if p.Age < 50 && !(p.IsAdult() && p.HasComorbidity(domain.ComorbidityImmunosuppression)) {
		return nil
	}
	return &domain.Recommendation{
		Title:    "Vacina Herpes Zóster recombinante",
		Category: domain.VACCINE,
		Priority: domain.MEDIUM,
		Citation: citeSBIm,
		Subtitle: "Duas doses",
	}
}

func ruleRSV(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if p.Age < 60 {
		return nil
	}
	priority := domain.MEDIUM
	if p.Age >= 75 {
		priority = domain.HIGH
	}
	return &domain.Recommendation{
		Title:    "Vacina VSR (vírus sincicial respiratório)",
		Category: domain.VACCINE,
		Priority: priority,
		Citation: citeSBIm,
		Subtitle: "Dose única",
	}
}

func ruleCOVID(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	priority := domain.LOW
	switch {
	case p.Age >= 60 || p.IsPregnant || p.HasComorbidity(domain.ComorbidityImmunosuppression):
		priority = domain.HIGH
	case !p.IsAdult():
		return nil
	}
	return &domain.Recommendation{
		Title:    "Vacina COVID-19",
		Category: domain.VACCINE,
		Priority: priority,
		Citation: citeCOVID,
	}
}

func ruleMaternalTdap(p domain.PatientProfile, _ domain.RiskCategory) *domain.Recommendation {
	if !p.IsPregnant {
		return nil
	}
	return &domain.Recommendation{
		Title:    "Vacina dTpa gestacional",
		Category: domain.VACCINE,
		Priority: domain.HIGH,
		Citation: citeMaternalTdap,
		Subtitle: "A partir da 20ª semana, em cada gestação",
	}
}

func ruleLpA(_ domain.PatientProfile, risk domain.RiskCategory) *domain.Recommendation {
	if !risk.In(domain.RISK_BORDERLINE, domain.RISK_INTERMEDIATE, domain.RISK_HIGH) {
		return nil
	}
	return &domain.Recommendation{
		Title:       "Lipoproteína(a) [Lp(a)]",
		Category:    domain.LAB,
		Priority:    domain.MEDIUM,
		Citation:    citeRiskEnhancers,
		Subtitle:    "Dosagem única",
		Description: "Fator intensificador de risco cardiovascular.",
	}
}

func ruleHsCRP(_ domain.PatientProfile, risk domain.RiskCategory) *domain.Recommendation {
	if !risk.In(domain.RISK_BORDERLINE, domain.RISK_INTERMEDIATE) {
		return nil
	}
	return &domain.Recommendation{
		Title:       "Proteína C reativa ultrassensível (PCR-us)",
		Category:    domain.LAB,
		Priority:    domain.LOW,
		Citation:    citeRiskEnhancers,
		Description: "Fator intensificador de risco cardiovascular.",
	}
}

func ruleCAC(_ domain.PatientProfile, risk domain.RiskCategory) *domain.Recommendation {
	if !risk.In(domain.RISK_BORDERLINE, domain.RISK_INTERMEDIATE) {
		return nil
	}
	priority := domain.MEDIUM
	if risk == domain.RISK_INTERMEDIATE {
		priority = domain.HIGH
	}
	return &domain.Recommendation{
		Title:       "Escore de cálcio coronariano (CAC)",
		Category:    domain.IMAGING,
		Priority:    priority,
		Citation:    citeRiskEnhancers,
		Description: "Reclassificação de risco para decisão sobre estatina.",
	}
}

func ruleABI(_ domain.PatientProfile, risk domain.RiskCategory) *domain.Recommendation {
	if !risk.In(domain.RISK_INTERMEDIATE, domain.RISK_HIGH) {
		return nil
	}
	return &domain.Recommendation{
		Title:    "Índice tornozelo-braquial (ITB)",
		Category: domain.IMAGING,
		Priority: domain.MEDIUM,
		Citation: citeRiskEnhancers,
	}
}
