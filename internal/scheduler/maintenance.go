package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// SchemaCache is the slice of the schema client the refresh job needs.
type SchemaCache interface {
	InvalidateAll()
}

// MaintenanceStore is the slice of the persistence layer upkeep jobs need.
type MaintenanceStore interface {
	PurgeSchemaDocs(ctx context.Context, olderThan time.Time) (int64, error)
	Vacuum(ctx context.Context) error
}

// MaintenanceConfig tunes the recurring upkeep jobs.
type MaintenanceConfig struct {
	RefreshSpec string        // cron for schema cache invalidation
	PurgeSpec   string        // cron for stale document purge and vacuum
	MaxDocAge   time.Duration // documents older than this are purged
}

// DefaultMaintenanceConfig refreshes hourly and purges nightly.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		RefreshSpec: "0 * * * *",
		PurgeSpec:   "30 3 * * *",
		MaxDocAge:   7 * 24 * time.Hour,
	}
}

// RegisterMaintenance wires the standard upkeep jobs into the scheduler.
// cache and st may each be nil to skip their jobs.
func RegisterMaintenance(s *Scheduler, cache SchemaCache, st MaintenanceStore, cfg MaintenanceConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if cache != nil {
		_, err := s.AddJob("schema-cache-refresh", cfg.RefreshSpec, func(ctx context.Context) error {
			cache.InvalidateAll()
			logger.Debug("schema cache invalidated")
			return nil
		})
		if err != nil {
			return err
		}
	}

	if st != nil {
		_, err := s.AddJob("store-purge", cfg.PurgeSpec, func(ctx context.Context) error {
			purged, err := st.PurgeSchemaDocs(ctx, time.Now().UTC().Add(-cfg.MaxDocAge))
			if err != nil {
				return err
			}
			if purged > 0 {
				logger.Info("purged stale schema documents", slog.Int64("count", purged))
			}
			return st.Vacuum(ctx)
		})
		if err != nil {
			return err
		}
	}

	return nil
}
