package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/clients/static"
	"github.com/ltpboard/ltpboard/internal/clients/yahoo"
	"github.com/ltpboard/ltpboard/internal/config"
	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
	"github.com/ltpboard/ltpboard/internal/modules/history"
	"github.com/ltpboard/ltpboard/internal/modules/portfolio"
	"github.com/ltpboard/ltpboard/internal/reliability"
)

// InitializeServices creates the price client, repositories and services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Price source
	fetcher, err := newPriceFetcher(cfg, log)
	if err != nil {
		return err
	}
	container.PriceFetcher = fetcher

	// Holdings
	portfolios, err := portfolio.LoadPortfolios(cfg.PortfoliosFile)
	if err != nil {
		return fmt.Errorf("failed to load portfolios: %w", err)
	}
	container.Portfolios = portfolios

	holdings := 0
	for _, p := range portfolios {
		holdings += len(p.Holdings)
	}
	log.Info().
		Int("portfolios", len(portfolios)).
		Int("holdings", holdings).
		Str("source", sourceName(cfg.PortfoliosFile)).
		Msg("Portfolios loaded")

	// Metrics and view state
	container.Calculator = portfolio.NewCalculator(fetcher, log)
	container.StateManager = dashboard.NewStateManager(log)

	if container.HistoryDB == nil {
		return nil
	}

	// History
	container.HistoryRepo = history.NewRepository(container.HistoryDB.Conn(), log)
	container.HistoryService = history.NewService(container.HistoryRepo)

	// Off-site backups
	if !cfg.Backup.Enabled() {
		log.Info().Msg("R2 backups not configured")
		return nil
	}

	r2, err := reliability.NewR2Client(ctx, cfg.Backup, log)
	if err != nil {
		return fmt.Errorf("failed to create R2 client: %w", err)
	}
	container.BackupService = reliability.NewBackupService(r2, container.HistoryDB, cfg.DataDir, log)
	log.Info().Str("bucket", cfg.Backup.Bucket).Msg("R2 backups enabled")

	return nil
}

func newPriceFetcher(cfg *config.Config, log zerolog.Logger) (domain.PriceFetcher, error) {
	switch cfg.PriceSource {
	case config.PriceSourceStatic:
		fetcher, err := static.Load(cfg.StaticPricesFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", cfg.StaticPricesFile).Msg("Using static price table")
		return fetcher, nil
	case config.PriceSourceYahoo:
		log.Info().Msg("Using Yahoo Finance prices")
		return yahoo.NewClient(log), nil
	default:
		return nil, fmt.Errorf("unknown price source %q", cfg.PriceSource)
	}
}

func sourceName(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
