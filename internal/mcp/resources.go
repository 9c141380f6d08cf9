package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/screening-engine/internal/domain"
)

const (
	rulesResourceURI     = "screening://rules"
	riskBandsResourceURI = "screening://risk-categories"
)

type riskBand struct {
	Category     string `json:"category"`
	Label        string `json:"label"`
	Color        string `json:"color"`
	Range10Yr    string `json:"range_10yr"`
	RangeUnder40 string `json:"range_30yr_under_40"`
	Description  string `json:"description"`
}

func riskBands() []riskBand {
	ranges := map[domain.RiskCategory][2]string{
		domain.RISK_LOW:          {"< 5%", "< 15%"},
		domain.RISK_BORDERLINE:   {"5% to < 7.5%", "15% to < 30%"},
		domain.RISK_INTERMEDIATE: {"7.5% to < 20%", "30% to < 45%"},
		domain.RISK_HIGH:         {">= 20%", ">= 45%"},
	}
	order := []domain.RiskCategory{domain.RISK_LOW, domain.RISK_BORDERLINE, domain.RISK_INTERMEDIATE, domain.RISK_HIGH}

	bands := make([]riskBand, 0, len(order))
	for _, c := range order {
		bands = append(bands, riskBand{
			Category:     string(c),
			Label:        c.Label(),
			Color:        c.Color(),
			Range10Yr:    ranges[c][0],
			RangeUnder40: ranges[c][1],
			Description:  c.Description(),
		})
	}
	return bands
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         rulesResourceURI,
		Name:        "screening_rules",
		Description: "Catalogue of the screening rules with family and risk gating.",
		MIMEType:    "application/json",
	}, s.readRules)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         riskBandsResourceURI,
		Name:        "risk_categories",
		Description: "PREVENT 10-year risk bands used to classify cardiovascular risk.",
		MIMEType:    "application/json",
	}, s.readRiskBands)
}

func (s *Server) readRules(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.service.Rules())
}

func (s *Server) readRiskBands(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, riskBands())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
