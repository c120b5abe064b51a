package providers

import (
	"github.com/samber/do/v2"

	"github.com/trustwaveapp/trustwave-server/internal/config"
	"github.com/trustwaveapp/trustwave-server/internal/logger"
	"github.com/trustwaveapp/trustwave-server/internal/store"
	"github.com/trustwaveapp/trustwave-server/internal/store/sqlite"
)

// StoreHandle wraps the hidden-set store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the badger-backed hidden-set store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.BadgerPath()
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}
	db, err := store.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Hidden store initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// JobStoreHandle wraps the sqlite job store with shutdown capability.
type JobStoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *JobStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideJobStore provides the sqlite store for job runs, checkpoints and the import log.
func ProvideJobStore(i do.Injector) (*JobStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := ensureDir(cfg.Store.DataPath); err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.SQLitePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Job store initialized", "path", cfg.SQLitePath())

	return &JobStoreHandle{Store: db}, nil
}
