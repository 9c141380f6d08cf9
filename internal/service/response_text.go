package service

import (
	"fmt"
	"sort"
	"strings"
)

// FormatText renders a response as a plain-text report for terminals and
// chat clients.
func FormatText(resp *EvaluationResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluation %s\n", resp.EvaluationID)
	if resp.PatientID != "" {
		fmt.Fprintf(&b, "Patient: %s\n", resp.PatientID)
	}

	b.WriteString("\nCardiovascular risk (PREVENT)\n")
	risk := resp.Risk
	if risk.Success && risk.Classification != nil {
		fmt.Fprintf(&b, "  10-year: %.1f%%\n", *risk.Risk10Yr)
		fmt.Fprintf(&b, "  30-year: %.1f%%\n", *risk.Risk30Yr)
		fmt.Fprintf(&b, "  Category: %s (%s)\n", risk.Classification.Category, risk.Classification.Description)
		if risk.ClinicalData != nil {
			fmt.Fprintf(&b, "  eGFR: %d mL/min/1.73m², non-HDL: %.0f mg/dL\n", risk.ClinicalData.EGFR, risk.ClinicalData.NonHDL)
		}
	} else {
		fmt.Fprintf(&b, "  unavailable: %s\n", risk.Error)
		if len(risk.Missing) > 0 {
			fmt.Fprintf(&b, "  missing: %s\n", strings.Join(risk.Missing, ", "))
		}
	}

	fmt.Fprintf(&b, "\nRecommendations (%d)\n", resp.Summary.Total)
	for i, r := range resp.Recommendations {
		fmt.Fprintf(&b, "%2d. [%s] %s", i+1, strings.ToUpper(r.Priority), r.Title)
		if r.Status != "" {
			fmt.Fprintf(&b, " (%s)", r.Status)
		}
		b.WriteString("\n")
		if r.Description != "" {
			fmt.Fprintf(&b, "    %s\n", r.Description)
		}
		if r.Reference != "" {
			fmt.Fprintf(&b, "    ref: %s\n", r.Reference)
		}
	}

	if len(resp.Summary.ByCategory) > 0 {
		categories := make([]string, 0, len(resp.Summary.ByCategory))
		for c := range resp.Summary.ByCategory {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		parts := make([]string, 0, len(categories))
		for _, c := range categories {
			parts = append(parts, fmt.Sprintf("%s=%d", c, resp.Summary.ByCategory[c]))
		}
		fmt.Fprintf(&b, "\nBy category: %s\n", strings.Join(parts, ", "))
	}

	return b.String()
}
