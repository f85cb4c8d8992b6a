package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/wizard/internal/api"
	"github.com/mtlprog/wizard/internal/config"
	"github.com/mtlprog/wizard/internal/database"
	"github.com/mtlprog/wizard/internal/dca"
	"github.com/mtlprog/wizard/internal/export"
	"github.com/mtlprog/wizard/internal/external"
	"github.com/mtlprog/wizard/internal/portfolio"
	"github.com/mtlprog/wizard/internal/pricing"
	"github.com/mtlprog/wizard/internal/ratelimit"
	"github.com/mtlprog/wizard/internal/rule"
	"github.com/mtlprog/wizard/internal/settings"
	"github.com/mtlprog/wizard/internal/snapshot"
	"github.com/mtlprog/wizard/internal/worker"
)

// app holds the wired services shared by the commands.
type app struct {
	cfg   config.Config
	pool  *pgxpool.Pool
	cache *external.QuoteCache

	settings  *settings.Service
	portfolio *portfolio.Service
	pricing   *pricing.Service
	snapshots *snapshot.Service
	dca       *dca.Service
	rules     *rule.Service
	export    *export.Service
	sessions  *worker.Sessions

	// sheets is set when a Google Sheets mirror is configured.
	sheets bool
}

func open(ctx context.Context, runMigrations bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if runMigrations {
		sub, err := migrationsDir()
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := database.RunMigrations(ctx, pool, sub); err != nil {
			pool.Close()
			return nil, err
		}
	}

	a, err := wire(ctx, cfg, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*app, error) {
	settingsSvc := settings.NewService(settings.NewPgRepository(pool), cfg.AlphaVantageAPIKey)

	// Quote providers share one limiter so per-source intervals hold across bulk and single updates.
	limiter := ratelimit.NewDefault()
	brapi := external.NewBrapiClient(
		external.NewHTTPClient(cfg.BrapiURL, cfg.HTTPRetryMax, cfg.HTTPRetryWait), limiter, cfg.BrapiToken)
	alphaVantage := external.NewAlphaVantageClient(
		external.NewHTTPClient(cfg.AlphaVantageURL, cfg.HTTPRetryMax, cfg.HTTPRetryWait), limiter)
	coinGecko := external.NewCoinGeckoClient(
		external.NewHTTPClient(cfg.CoinGeckoURL, cfg.HTTPRetryMax, cfg.HTTPRetryWait), limiter, cfg.CoinGeckoCurrency)

	cache, err := external.NewQuoteCache(cfg.QuoteCacheTTL)
	if err != nil {
		return nil, err
	}
	router := external.NewRouter(brapi, alphaVantage, coinGecko, cache)

	portfolioRepo := portfolio.NewPgRepository(pool)
	pricingSvc := pricing.NewService(portfolioRepo, settingsSvc, router, pricing.WithDelay(cfg.BulkUpdateDelay))

	portfolioSvc := portfolio.NewService(portfolioRepo, nil, settingsSvc, pricingSvc)
	snapshotSvc := snapshot.NewService(portfolioSvc, snapshot.NewPgRepository(pool))
	portfolioSvc.SetSnapshots(snapshotSvc)

	a := &app{
		cfg:       cfg,
		pool:      pool,
		cache:     cache,
		settings:  settingsSvc,
		portfolio: portfolioSvc,
		pricing:   pricingSvc,
		snapshots: snapshotSvc,
		dca:       dca.NewService(dca.NewPgRepository(pool)),
		rules:     rule.NewService(rule.NewPgRepository(pool)),
		sessions:  worker.NewSessions(pricingSvc, pricingSvc, 0),
	}

	var writer export.SheetWriter
	if cfg.GoogleSheetsID != "" && cfg.GoogleCredentialsJSON != "" {
		sw, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, err
		}
		writer = sw
		a.sheets = true
	}
	a.export = export.NewService(portfolioSvc, snapshotSvc, writer)

	return a, nil
}

func (a *app) services() api.Services {
	return api.Services{
		Portfolio: a.portfolio,
		Prices:    a.pricing,
		Snapshots: a.snapshots,
		DCA:       a.dca,
		Rules:     a.rules,
		Settings:  a.settings,
		Export:    a.export,
		Sessions:  a.sessions,
	}
}

func (a *app) Close() {
	a.cache.Close()
	a.pool.Close()
}
