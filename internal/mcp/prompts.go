package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const promptScreeningReview = "screening_review"

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        promptScreeningReview,
		Description: "Guide a review of a patient's preventive screening plan using evaluate_patient.",
		Arguments: []*mcp.PromptArgument{
			{Name: "patient_summary", Description: "Free-text summary of the patient: age, sex, labs, blood pressure, smoking, comorbidities.", Required: true},
			{Name: "focus", Description: "Optional focus such as cardiovascular, cancer or vaccines."},
			{Name: "language", Description: "Language of the answer (default: the language of the summary)."},
		},
	}, s.getScreeningReview)
}

func (s *Server) getScreeningReview(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	s.logger.WithField("prompt", promptScreeningReview).Info("Prompt requested")
	return screeningReview(req.Params.Arguments)
}

func screeningReview(args map[string]string) (*mcp.GetPromptResult, error) {
	summary := strings.TrimSpace(args["patient_summary"])
	if summary == "" {
		return nil, fmt.Errorf("patient_summary is required")
	}

	var b strings.Builder
	b.WriteString("Review the preventive screening plan for this patient.\n\n")
	fmt.Fprintf(&b, "Patient: %s\n\n", summary)
	b.WriteString("1. Extract the structured fields and call evaluate_patient. If it reports a missing or invalid field, ask for it instead of guessing.\n")
	b.WriteString("2. Report the PREVENT 10-year and 30-year cardiovascular risk and the risk category. If risk could not be estimated, list the missing inputs.\n")
	b.WriteString("3. Present the recommendations grouped by priority, citing each guideline reference.\n")
	b.WriteString("4. Point out which recommendations depend on the risk category.\n")
	if focus := strings.TrimSpace(args["focus"]); focus != "" {
		fmt.Fprintf(&b, "\nFocus the discussion on %s.\n", focus)
	}
	if lang := strings.TrimSpace(args["language"]); lang != "" {
		fmt.Fprintf(&b, "\nAnswer in %s.\n", lang)
	}

	return &mcp.GetPromptResult{
		Description: "Preventive screening review",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: b.String()},
		}},
	}, nil
}
