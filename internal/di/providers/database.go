package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfwise/catalog-server/internal/config"
	"github.com/shelfwise/catalog-server/internal/logger"
	"github.com/shelfwise/catalog-server/internal/store"
	"github.com/shelfwise/catalog-server/internal/store/sqlite"
)

// StoreHandle wraps the catalog database with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog database holding entries, tags, links and
// the publication directory.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Component("sqlite").Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// ProfileStoreHandle wraps the profile attribute store with shutdown capability.
type ProfileStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *ProfileStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideProfileStore provides the badger-backed profile attribute store.
func ProvideProfileStore(i do.Injector) (*ProfileStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	path := cfg.Data.ProfilesPath()
	s, err := store.New(path, log.Component("profiles").Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Profile store initialized", "path", path)

	return &ProfileStoreHandle{Store: s}, nil
}

// HealthChecks returns the readiness probes for both stores.
func HealthChecks(i do.Injector) map[string]func(context.Context) error {
	db := do.MustInvoke[*StoreHandle](i)
	profiles := do.MustInvoke[*ProfileStoreHandle](i)

	return map[string]func(context.Context) error{
		"sqlite":   func(context.Context) error { return db.Ping() },
		"profiles": profiles.Ping,
	}
}
