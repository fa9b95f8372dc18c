package factory

import (
	"fmt"

	"github.com/mwort/grass/internal/config"
	"github.com/mwort/grass/internal/store"
	"github.com/mwort/grass/internal/store/postgres"
	"github.com/mwort/grass/internal/store/sqlite"
)

// NewStore selects the catalog backend based on cfg.DBDriver.
func NewStore(cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
