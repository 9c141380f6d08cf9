// Package checkup records an audit trail of screening evaluations.
// Each record summarizes one evaluation: who was screened, the risk band
// and which recommendations were issued.
package checkup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/screening-engine/internal/domain"
)

// ExportVersion is written to and required from JSON exports.
const ExportVersion = "1.0"

// ErrUnsupportedVersion is returned when importing an unknown export version.
var ErrUnsupportedVersion = errors.New("unsupported checkup export version")

// Checkup is the persisted summary of one evaluation.
type Checkup struct {
	ID                  int64     `json:"id,omitempty"`
	EvaluationID        string    `json:"evaluation_id"`
	PatientID           string    `json:"patient_id,omitempty"`
	Age                 int       `json:"age"`
	Sex                 string    `json:"sex"`
	RiskSuccess         bool      `json:"risk_success"`
	RiskCategory        string    `json:"risk_category,omitempty"`
	Risk10Yr            *float64  `json:"risk_10yr,omitempty"`
	Risk30Yr            *float64  `json:"risk_30yr,omitempty"`
	RecommendationCount int       `json:"recommendation_count"`
	HighPriorityCount   int       `json:"high_priority_count"`
	Recommendations     []string  `json:"recommendations"`
	Cached              bool      `json:"cached"`
	EvaluatedAt         time.Time `json:"evaluated_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// Store defines the interface for checkup storage operations.
type Store interface {
	// Save stores a checkup. Saving the same evaluation ID again updates it.
	Save(ctx context.Context, c *Checkup) error

	// Get retrieves a checkup by evaluation ID. Returns nil, nil when absent.
	Get(ctx context.Context, evaluationID string) (*Checkup, error)

	// ListByPatient returns a patient's checkups, newest first.
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*Checkup, error)

	// List returns all checkups with pagination, newest first.
	List(ctx context.Context, limit, offset int) ([]*Checkup, error)

	// Count returns the total number of checkups.
	Count(ctx context.Context) (int64, error)

	// Delete removes a checkup by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all checkups to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports checkups from a JSON reader, skipping evaluation
	// IDs that already exist.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string     `json:"version"`
	ExportedAt time.Time  `json:"exported_at"`
	Count      int        `json:"count"`
	Checkups   []*Checkup `json:"checkups"`
}

// FromResult summarizes an evaluation result.
func FromResult(result *domain.EvaluationResult) *Checkup {
	c := &Checkup{
		EvaluationID:        result.ID,
		PatientID:           result.PatientID,
		Age:                 result.Profile.Age,
		Sex:                 string(result.Profile.Sex),
		Recommendations:     make([]string, 0, len(result.Recommendations)),
		RecommendationCount: len(result.Recommendations),
		Cached:              result.Cached,
		EvaluatedAt:         result.EvaluatedAt,
	}

	if result.Risk != nil && result.Risk.Success {
		r10, r30 := result.Risk.Risk10Yr, result.Risk.Risk30Yr
		c.RiskSuccess = true
		c.RiskCategory = string(result.Risk.Category)
		c.Risk10Yr = &r10
		c.Risk30Yr = &r30
	}

	for _, r := range result.Recommendations {
		c.Recommendations = append(c.Recommendations, r.Title)
		if r.Priority == domain.HIGH {
			c.HighPriorityCount++
		}
	}
	return c
}

// Validate checks the fields a store requires.
func (c *Checkup) Validate() error {
	if c.EvaluationID == "" {
		return domain.NewValidationError("evaluation_id", "evaluation_id is required", c.EvaluationID)
	}
	if c.EvaluatedAt.IsZero() {
		return domain.NewValidationError("evaluated_at", "evaluated_at is required", nil)
	}
	return nil
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// exportJSON writes every checkup of store in the versioned format.
func exportJSON(ctx context.Context, store Store, writer io.Writer) error {
	all, err := store.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list checkups: %w", err)
	}
	if all == nil {
		all = []*Checkup{}
	}

	export := &Export{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(all),
		Checkups:   all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// importJSON reads an export and saves entries whose evaluation ID is new.
func importJSON(ctx context.Context, store Store, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if export.Version != ExportVersion {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnsupportedVersion, export.Version)
	}

	for _, c := range export.Checkups {
		if c == nil || c.Validate() != nil {
			skipped++
			continue
		}

		existing, err := store.Get(ctx, c.EvaluationID)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}
		if existing != nil {
			skipped++
			continue
		}

		c.ID = 0
		if err := store.Save(ctx, c); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}

func encodeTitles(titles []string) (string, error) {
	if titles == nil {
		titles = []string{}
	}
	data, err := json.Marshal(titles)
	if err != nil {
		return "", fmt.Errorf("failed to encode recommendations: %w", err)
	}
	return string(data), nil
}

func decodeTitles(data string) []string {
	titles := []string{}
	if data == "" {
		return titles
	}
	if err := json.Unmarshal([]byte(data), &titles); err != nil {
		return []string{}
	}
	return titles
}
