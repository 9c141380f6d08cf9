package domain

import (
	"context"
)

// EvaluationObserver receives finished evaluations. The pipeline itself
// never calls observers; the orchestrating service does, fire-and-forget.
type EvaluationObserver interface {
	Name() string
	ObserveEvaluation(ctx context.Context, result *EvaluationResult) error
}

// StatusProvider returns workflow statuses for a patient keyed by the
// recommendation strict identity key.
type StatusProvider interface {
	Statuses(ctx context.Context, patientID string) (map[string]string, error)
}

// StatusWriter persists a workflow status for one recommendation.
type StatusWriter interface {
	SetStatus(ctx context.Context, patientID, recommendationKey, status string) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
