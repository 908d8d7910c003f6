package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/pkg/metrics"
)

// DraftStore is same-device key-value storage for unsaved wizard drafts.
// Values are opaque serialised snapshots.
type DraftStore interface {
	// Get reports false when nothing is stored under key.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set overwrites whatever is stored under key.
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// NewDraftStore builds the store selected by cfg.Driver.
func NewDraftStore(ctx context.Context, cfg *config.DraftsConfig) (DraftStore, error) {
	var (
		store DraftStore
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory, "":
		store = NewMemoryDraftStore(cfg.MaxEntries)
	case config.DriverRedis:
		store, err = NewRedisDraftStore(ctx, &cfg.Redis)
	case config.DriverSQLite:
		store, err = NewSQLiteDraftStore(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown drafts driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("draft store initialized", "driver", cfg.Driver)
	return store, nil
}

func observeDraftOp(driver, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.DraftStoreOperationsTotal.WithLabelValues(driver, op, outcome).Inc()
}
