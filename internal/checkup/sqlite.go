package checkup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite checkup store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	// Recorders write from background goroutines
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

const checkupColumns = `id, evaluation_id, patient_id, age, sex,
	risk_success, risk_category, risk_10yr, risk_30yr,
	recommendation_count, high_priority_count, recommendations,
	cached, evaluated_at, created_at`

// scanCheckup scans a row into a Checkup struct.
func scanCheckup(s scanner) (*Checkup, error) {
	c := &Checkup{}
	var r10, r30 sql.NullFloat64
	var titles string

	err := s.Scan(
		&c.ID, &c.EvaluationID, &c.PatientID, &c.Age, &c.Sex,
		&c.RiskSuccess, &c.RiskCategory, &r10, &r30,
		&c.RecommendationCount, &c.HighPriorityCount, &titles,
		&c.Cached, &c.EvaluatedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if r10.Valid {
		c.Risk10Yr = &r10.Float64
	}
	if r30.Valid {
		c.Risk30Yr = &r30.Float64
	}
	c.Recommendations = decodeTitles(titles)
	return c, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS checkups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		evaluation_id TEXT NOT NULL UNIQUE,
		patient_id TEXT DEFAULT '',
		age INTEGER NOT NULL,
		sex TEXT NOT NULL,
		risk_success INTEGER NOT NULL DEFAULT 0,
		risk_category TEXT DEFAULT '',
		risk_10yr REAL,
		risk_30yr REAL,
		recommendation_count INTEGER NOT NULL DEFAULT 0,
		high_priority_count INTEGER NOT NULL DEFAULT 0,
		recommendations TEXT NOT NULL DEFAULT '[]',
		cached INTEGER NOT NULL DEFAULT 0,
		evaluated_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_checkups_patient_id ON checkups(patient_id);
	CREATE INDEX IF NOT EXISTS idx_checkups_evaluated_at ON checkups(evaluated_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores or updates a checkup keyed by evaluation ID.
func (s *SQLiteStore) Save(ctx context.Context, c *Checkup) error {
	if err := c.Validate(); err != nil {
		return err
	}
	titles, err := encodeTitles(c.Recommendations)
	if err != nil {
		return err
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM checkups WHERE evaluation_id = ?", c.EvaluationID,
	).Scan(&existingID)

	if err == nil {
		c.ID = existingID
		_, err = s.db.ExecContext(ctx, `
			UPDATE checkups SET
				patient_id = ?,
				age = ?,
				sex = ?,
				risk_success = ?,
				risk_category = ?,
				risk_10yr = ?,
				risk_30yr = ?,
				recommendation_count = ?,
				high_priority_count = ?,
				recommendations = ?,
				cached = ?,
				evaluated_at = ?
			WHERE id = ?
		`,
			c.PatientID, c.Age, c.Sex,
			c.RiskSuccess, c.RiskCategory, nullFloat(c.Risk10Yr), nullFloat(c.Risk30Yr),
			c.RecommendationCount, c.HighPriorityCount, titles,
			c.Cached, c.EvaluatedAt.UTC(),
			existingID,
		)
		if err != nil {
			return fmt.Errorf("failed to update checkup: %w", err)
		}
		return nil
	}

	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check existing: %w", err)
	}

	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO checkups (
			evaluation_id, patient_id, age, sex,
			risk_success, risk_category, risk_10yr, risk_30yr,
			recommendation_count, high_priority_count, recommendations,
			cached, evaluated_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.EvaluationID, c.PatientID, c.Age, c.Sex,
		c.RiskSuccess, c.RiskCategory, nullFloat(c.Risk10Yr), nullFloat(c.Risk30Yr),
		c.RecommendationCount, c.HighPriorityCount, titles,
		c.Cached, c.EvaluatedAt.UTC(), c.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	c.ID = id

	return nil
}

// Get retrieves a checkup by evaluation ID.
func (s *SQLiteStore) Get(ctx context.Context, evaluationID string) (*Checkup, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+checkupColumns+" FROM checkups WHERE evaluation_id = ? LIMIT 1",
		evaluationID)

	c, err := scanCheckup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return c, nil
}

// ListByPatient returns a patient's checkups, newest first.
func (s *SQLiteStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*Checkup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkupColumns+" FROM checkups WHERE patient_id = ? ORDER BY evaluated_at DESC, id DESC LIMIT ?",
		patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return collect(rows)
}

// List returns all checkups with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Checkup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+checkupColumns+" FROM checkups ORDER BY evaluated_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*Checkup, error) {
	defer rows.Close()

	var result []*Checkup
	for rows.Next() {
		c, err := scanCheckup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Count returns the total number of checkups.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM checkups").Scan(&count)
	return count, err
}

// Delete removes a checkup by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkups WHERE id = ?", id)
	return err
}

// ExportJSON exports all checkups to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportJSON(ctx, s, writer)
}

// ImportJSON imports checkups from a JSON reader.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	return importJSON(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
