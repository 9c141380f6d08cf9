package checkup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL checkup store.
// It expects the schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL checkup store from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores or updates a checkup keyed by evaluation ID.
func (s *PostgresStore) Save(ctx context.Context, c *Checkup) error {
	if err := c.Validate(); err != nil {
		return err
	}
	titles, err := encodeTitles(c.Recommendations)
	if err != nil {
		return err
	}

	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO checkups (
			evaluation_id, patient_id, age, sex,
			risk_success, risk_category, risk_10yr, risk_30yr,
			recommendation_count, high_priority_count, recommendations,
			cached, evaluated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (evaluation_id) DO UPDATE SET
			patient_id = EXCLUDED.patient_id,
			age = EXCLUDED.age,
			sex = EXCLUDED.sex,
			risk_success = EXCLUDED.risk_success,
			risk_category = EXCLUDED.risk_category,
			risk_10yr = EXCLUDED.risk_10yr,
			risk_30yr = EXCLUDED.risk_30yr,
			recommendation_count = EXCLUDED.recommendation_count,
			high_priority_count = EXCLUDED.high_priority_count,
			recommendations = EXCLUDED.recommendations,
			cached = EXCLUDED.cached,
			evaluated_at = EXCLUDED.evaluated_at
		RETURNING id, created_at
	`

	err = s.db.QueryRowContext(ctx, query,
		c.EvaluationID, c.PatientID, c.Age, c.Sex,
		c.RiskSuccess, c.RiskCategory, nullFloat(c.Risk10Yr), nullFloat(c.Risk30Yr),
		c.RecommendationCount, c.HighPriorityCount, titles,
		c.Cached, c.EvaluatedAt.UTC(), createdAt,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save checkup: %w", err)
	}

	return nil
}

// Get retrieves a checkup by evaluation ID.
func (s *PostgresStore) Get(ctx context.Context, evaluationID string) (*Checkup, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+checkupColumns+" FROM checkups WHERE evaluation_id = $1 LIMIT 1",
		evaluationID)

	c, err := scanCheckup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checkup: %w", err)
	}
	return c, nil
}

// ListByPatient returns a patient's checkups, newest first.
func (s *PostgresStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*Checkup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkupColumns+" FROM checkups WHERE patient_id = $1 ORDER BY evaluated_at DESC, id DESC LIMIT $2",
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list patient checkups: %w", err)
	}
	return collect(rows)
}

// List returns all checkups with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Checkup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkupColumns+" FROM checkups ORDER BY evaluated_at DESC, id DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkups: %w", err)
	}
	return collect(rows)
}

// Count returns the total number of checkups.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM checkups").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count checkups: %w", err)
	}
	return count, nil
}

// Delete removes a checkup by ID.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkups WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete checkup: %w", err)
	}
	return nil
}

// ExportJSON exports all checkups to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportJSON(ctx, s, writer)
}

// ImportJSON imports checkups from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importJSON(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
