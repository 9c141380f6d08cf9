// Package bootstrap assembles the screening service and its optional
// collaborators for the three entry points.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/screening-engine/internal/checkup"
	"github.com/screening-engine/internal/config"
	"github.com/screening-engine/internal/database"
	"github.com/screening-engine/internal/domain"
	"github.com/screening-engine/internal/monitoring"
	"github.com/screening-engine/internal/observer"
	"github.com/screening-engine/internal/repository"
	"github.com/screening-engine/internal/service"
)

// Stack is a wired screening service. Metrics, Checkups and Statuses are
// nil when their backing store is not configured.
type Stack struct {
	Service  *service.ScreeningService
	Metrics  *monitoring.Metrics
	Checkups checkup.Store
	Statuses *repository.StatusRepository

	cache  *service.ResultCache
	db     *database.DB
	logger *logrus.Logger
}

// NewServerStack wires the full HTTP deployment: Postgres statuses and
// migrations when database.host is set, the configured checkup store,
// Prometheus metrics and the result cache.
func NewServerStack(ctx context.Context, cfg *domain.Config, logger *logrus.Logger) (*Stack, error) {
	stack := &Stack{logger: logger, Metrics: monitoring.NewMetrics()}

	if cfg.Cache.Enabled {
		cache, err := service.NewResultCache(cfg.Cache, logger)
		if err != nil {
			return nil, fmt.Errorf("creating result cache: %w", err)
		}
		stack.cache = cache
	}

	var dbConfig database.Config
	if cfg.Database.Host != "" {
		dbConfig = database.ConfigFromDomain(cfg.Database)
		db, err := database.NewConnection(ctx, dbConfig, logger)
		if err != nil {
			stack.Close()
			return nil, err
		}
		stack.db = db

		if cfg.Database.MigrationsPath != "" {
			if err := migrate(ctx, dbConfig.URL(), cfg.Database.MigrationsPath, logger); err != nil {
				stack.Close()
				return nil, err
			}
		}
		stack.Statuses = repository.NewStatusRepository(db.Pool, logger)
	}

	switch strings.ToLower(cfg.Store.Driver) {
	case "", "none":
	case "sqlite":
		store, err := checkup.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			stack.Close()
			return nil, fmt.Errorf("opening checkup store: %w", err)
		}
		stack.Checkups = store
	case "postgres":
		if stack.db == nil {
			stack.Close()
			return nil, errors.New("store.driver postgres requires database.host")
		}
		store, err := checkup.NewPostgresStoreFromURL(dbConfig.URL())
		if err != nil {
			stack.Close()
			return nil, fmt.Errorf("opening checkup store: %w", err)
		}
		stack.Checkups = store
	default:
		stack.Close()
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	observers := []domain.EvaluationObserver{stack.Metrics}
	if stack.Checkups != nil {
		observers = append(observers, recorder(stack.Checkups, cfg.Engine.BreakerEnabled, logger))
	}
	fanout := observer.NewFanout(logger, observers...)

	var statuses domain.StatusProvider
	if stack.Statuses != nil {
		statuses = stack.Statuses
	}

	stack.Service = service.NewScreeningService(logger, service.NewEngine(logger), stack.cache, statuses, fanout, cfg.Engine)

	logger.WithFields(logrus.Fields{
		"cache":         stack.cache != nil,
		"statuses":      stack.Statuses != nil,
		"checkup_store": cfg.Store.Driver,
	}).Info("Screening service assembled")

	return stack, nil
}

// NewLiteStack wires the standalone deployment used by the MCP server and
// the CLI: in-memory cache and a SQLite checkup store under the data dir.
// With record false the store is still opened but evaluations are not
// written to it.
func NewLiteStack(cfg *config.LiteConfig, logger *logrus.Logger, record bool) (*Stack, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	cache, err := service.NewResultCache(domain.CacheConfig{
		Enabled:    true,
		Size:       cfg.CacheMaxItems,
		DefaultTTL: cfg.CacheTTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}

	store, err := checkup.NewSQLiteStore(cfg.CheckupDBPath())
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("opening checkup store: %w", err)
	}

	stack := &Stack{Checkups: store, cache: cache, logger: logger}

	var obs domain.EvaluationObserver
	if record {
		obs = recorder(store, true, logger)
	}

	stack.Service = service.NewScreeningService(logger, service.NewEngine(logger), cache, nil, obs, domain.EngineConfig{})

	logger.WithFields(logrus.Fields{
		"data_dir":  filepath.Clean(cfg.DataDir),
		"recording": record,
	}).Debug("Lite screening service assembled")

	return stack, nil
}

func recorder(store checkup.Store, withBreaker bool, logger *logrus.Logger) domain.EvaluationObserver {
	rec := checkup.NewRecorder(store, logger)
	if !withBreaker {
		return rec
	}
	return observer.NewBreaker(rec, observer.DefaultBreakerConfig(), logger)
}

func migrate(ctx context.Context, databaseURL, migrationsPath string, logger *logrus.Logger) error {
	runner, err := database.NewMigrationRunner(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.Up(ctx)
}

// Close waits for in-flight observers and releases every store.
func (s *Stack) Close() error {
	if s.Service != nil {
		s.Service.Wait()
	}

	var errs []error
	if s.Checkups != nil {
		if err := s.Checkups.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing checkup store: %w", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing result cache: %w", err))
		}
	}
	if s.db != nil {
		s.db.Close()
	}
	return errors.Join(errs...)
}
