package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/service"
)

const (
	toolEvaluatePatient = "evaluate_patient"
	toolListRules       = "list_screening_rules"
	toolPatientCheckups = "list_patient_checkups"

	defaultCheckupLimit = 10
)

// EvaluatePatientInput is the argument of evaluate_patient.
type EvaluatePatientInput struct {
	Patient   map[string]any `json:"patient" jsonschema:"Patient data. Accepts English or Portuguese keys such as age/idade, sex/sexo, total_cholesterol, hdl_cholesterol, systolic_bp or blood_pressure, creatinine, smoking, pack_years, comorbidities and medications."`
	PatientID string         `json:"patient_id,omitempty" jsonschema:"Optional patient identifier used for recommendation statuses and checkup history."`
	Collapse  string         `json:"collapse,omitempty" jsonschema:"Set to title to merge recommendations that share a title regardless of category or reference."`
	Format    string         `json:"format,omitempty" jsonschema:"Output format: json (default) or text."`
}

// ListRulesInput is the argument of list_screening_rules.
type ListRulesInput struct {
	Family string `json:"family,omitempty" jsonschema:"Optional rule family filter: cancer, infectious, metabolic, hypertension, diabetes, prenatal, vaccine or risk_escalation."`
}

// PatientCheckupsInput is the argument of list_patient_checkups.
type PatientCheckupsInput struct {
	PatientID string `json:"patient_id" jsonschema:"Patient identifier."`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of checkups to return (default 10)."`
}

func (s *Server) handleEvaluatePatient(ctx context.Context, _ *mcp.CallToolRequest, input EvaluatePatientInput) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":       toolEvaluatePatient,
		"patient_id": input.PatientID,
	}).Info("Tool invoked")

	if len(input.Patient) == 0 {
		return errorResult("patient is required"), nil, nil
	}

	result, err := s.service.Evaluate(ctx, input.Patient, service.RequestOptions{
		PatientID:       input.PatientID,
		CollapseByTitle: strings.EqualFold(input.Collapse, "title"),
	})
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return errorResult(fmt.Sprintf("invalid %s: %s", verr.Field, verr.Message)), nil, nil
		}
		return nil, nil, fmt.Errorf("evaluation failed: %w", err)
	}

	resp := service.ShapeResponse(result)
	if strings.EqualFold(input.Format, "text") {
		return textResult(service.FormatText(resp)), nil, nil
	}
	return jsonResult(resp)
}

func (s *Server) handleListRules(_ context.Context, _ *mcp.CallToolRequest, input ListRulesInput) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolListRules).Info("Tool invoked")

	rules := s.service.Rules()
	if input.Family != "" {
		filtered := make([]service.RuleInfo, 0, len(rules))
		for _, r := range rules {
			if strings.EqualFold(r.Family, input.Family) {
				filtered = append(filtered, r)
			}
		}
		rules = filtered
	}

	return jsonResult(map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

func (s *Server) handlePatientCheckups(ctx context.Context, _ *mcp.CallToolRequest, input PatientCheckupsInput) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":       toolPatientCheckups,
		"patient_id": input.PatientID,
	}).Info("Tool invoked")

	if strings.TrimSpace(input.PatientID) == "" {
		return errorResult("patient_id is required"), nil, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultCheckupLimit
	}

	checkups, err := s.checkups.ListByPatient(ctx, input.PatientID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list checkups: %w", err)
	}

	return jsonResult(map[string]any{
		"patient_id": input.PatientID,
		"checkups":   checkups,
		"count":      len(checkups),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: message}},
	}
}
