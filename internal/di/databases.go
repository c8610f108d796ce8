package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/config"
	"github.com/ltpboard/ltpboard/internal/database"
)

// InitializeDatabases opens the history database and applies its schema.
// With history disabled no database is opened.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	if !cfg.HistoryEnabled {
		log.Info().Msg("History disabled, running without a database")
		return container, nil
	}

	historyDB, err := database.New(database.Config{
		Path: cfg.HistoryDBPath(),
		Name: "history",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history database: %w", err)
	}

	if err := historyDB.Migrate(); err != nil {
		historyDB.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	container.HistoryDB = historyDB

	log.Info().Str("path", historyDB.Path()).Msg("History database initialized")
	return container, nil
}
