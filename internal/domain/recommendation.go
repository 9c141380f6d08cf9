package domain

import (
	"strings"
)

// ReferenceLink is a resolved citation entry.
type ReferenceLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Recommendation is a single screening item, either a candidate emitted by
// a rule or a survivor of aggregation. ReferenceLinks is populated only by
// the reference annotator.
type Recommendation struct {
	RuleID         string                 `json:"rule_id,omitempty"`
	Title          string                 `json:"title"`
	Category       RecommendationCategory `json:"category"`
	Priority       Priority               `json:"priority"`
	Citation       string                 `json:"reference"`
	Description    string                 `json:"description"`
	Subtitle       string                 `json:"subtitulo"`
	EvidenceGrade  string                 `json:"grau_evidencia"`
	Status         string                 `json:"status,omitempty"`
	ReferenceLinks []ReferenceLink        `json:"reference_links,omitempty"`
	ReferenceHTML  string                 `json:"reference_html,omitempty"`
}

// NormalizeTitle lower-cases a title and collapses internal whitespace.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// StrictKey is the identity key (normalized title, category, citation).
// It is also the key used for recommendation statuses.
func (r Recommendation) StrictKey() string {
	return StrictKey(r.Title, r.Category, r.Citation)
}

// TitleKey is the loose identity key: the normalized title alone.
func (r Recommendation) TitleKey() string {
	return NormalizeTitle(r.Title)
}

// StrictKey builds the strict identity key from its components.
func StrictKey(title string, category RecommendationCategory, citation string) string {
	return NormalizeTitle(title) + "|" + string(category) + "|" + strings.TrimSpace(citation)
}

// Validate checks the enumerated fields of a recommendation.
func (r Recommendation) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return NewValidationError("title", "title is required", r.Title)
	}
	if !r.Category.IsValid() {
		return ErrInvalidCategory
	}
	if !r.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}
