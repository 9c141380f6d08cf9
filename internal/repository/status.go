package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/domain"
)

// maxStatusLength bounds free-form workflow markers such as "done".
const maxStatusLength = 64

// StatusRepository persists recommendation workflow statuses per patient.
// Keys are recommendation strict identity keys.
type StatusRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewStatusRepository creates a new status repository
func NewStatusRepository(db *pgxpool.Pool, logger *logrus.Logger) *StatusRepository {
	return &StatusRepository{
		db:  db,
		log: logger,
	}
}

// Statuses returns every status recorded for the patient.
func (r *StatusRepository) Statuses(ctx context.Context, patientID string) (map[string]string, error) {
	query := `
		SELECT recommendation_key, status
		FROM recommendation_statuses
		WHERE patient_id = $1`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	statuses := make(map[string]string)
	for rows.Next() {
		var key, status string
		if err := rows.Scan(&key, &status); err != nil {
			return nil, fmt.Errorf("scanning status: %w", err)
		}
		statuses[key] = status
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"patient_id": patientID,
		"count":      len(statuses),
	}).Debug("Loaded recommendation statuses")

	return statuses, nil
}

// Status returns one status, or domain.ErrNotFound.
func (r *StatusRepository) Status(ctx context.Context, patientID, recommendationKey string) (string, error) {
	query := `
		SELECT status
		FROM recommendation_statuses
		WHERE patient_id = $1 AND recommendation_key = $2`

	var status string
	err := r.db.QueryRow(ctx, query, patientID, recommendationKey).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("getting status: %w", err)
	}
	return status, nil
}

// SetStatus upserts a status. An empty status clears it.
func (r *StatusRepository) SetStatus(ctx context.Context, patientID, recommendationKey, status string) error {
	if err := validateStatus(patientID, recommendationKey, status); err != nil {
		return err
	}

	status = strings.TrimSpace(status)
	if status == "" {
		err := r.ClearStatus(ctx, patientID, recommendationKey)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	query := `
		INSERT INTO recommendation_statuses (patient_id, recommendation_key, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (patient_id, recommendation_key) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, patientID, recommendationKey, status); err != nil {
		r.log.WithFields(logrus.Fields{
			"patient_id":         patientID,
			"recommendation_key": recommendationKey,
			"error":              err,
		}).Error("Failed to set recommendation status")
		return fmt.Errorf("setting status: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"patient_id":         patientID,
		"recommendation_key": recommendationKey,
		"status":             status,
	}).Info("Recommendation status updated")

	return nil
}

// ClearStatus removes a status, returning domain.ErrNotFound when none exists.
func (r *StatusRepository) ClearStatus(ctx context.Context, patientID, recommendationKey string) error {
	tag, err := r.db.Exec(ctx,
		"DELETE FROM recommendation_statuses WHERE patient_id = $1 AND recommendation_key = $2",
		patientID, recommendationKey)
	if err != nil {
		return fmt.Errorf("clearing status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func validateStatus(patientID, recommendationKey, status string) error {
	if strings.TrimSpace(patientID) == "" {
		return domain.NewValidationError("patient_id", "patient_id is required", patientID)
	}
	if strings.TrimSpace(recommendationKey) == "" {
		return domain.NewValidationError("recommendation_key", "recommendation_key is required", recommendationKey)
	}
	if len(status) > maxStatusLength {
		return domain.NewValidationError("status", fmt.Sprintf("status must be at most %d characters", maxStatusLength), status)
	}
	return nil
}
