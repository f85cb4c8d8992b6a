package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/wizard/internal/api"
	"github.com/mtlprog/wizard/internal/config"
	"github.com/mtlprog/wizard/internal/database"
	"github.com/mtlprog/wizard/internal/domain"
	"github.com/mtlprog/wizard/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:   "wizard",
		Usage:  "personal investment portfolio tracker",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run migrations, start the workers and the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply pending database migrations",
				Action: migrate,
			},
			{
				Name:  "update-prices",
				Usage: "fetch fresh quotes for every asset",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "stale", Usage: "only update assets whose price is stale"},
				},
				Action: updatePrices,
			},
			{
				Name:      "detect",
				Usage:     "print the asset type inferred for each ticker",
				ArgsUsage: "TICKER...",
				Action:    detect,
			},
			{
				Name:  "export",
				Usage: "write the allocation and snapshot workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "wizard.xlsx", Usage: "output file"},
				},
				Action: exportWorkbook,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func migrationsDir() (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	return sub, nil
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	sub, err := migrationsDir()
	if err != nil {
		return err
	}
	return database.RunMigrations(c.Context, pool, sub)
}

func serve(c *cli.Context) error {
	ctx := c.Context

	a, err := open(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.PriceWorkerInterval > 0 {
		go worker.NewPriceWorker(a.pricing, a.cfg.PriceWorkerInterval).Run(ctx)
	}
	if a.cfg.SnapshotWorkerInterval > 0 {
		var hook worker.AfterSnapshotHook
		if a.sheets {
			hook = a.export
		}
		go worker.NewSnapshotWorker(a.snapshots, a.cfg.SnapshotWorkerInterval, hook).Run(ctx)
	}

	if a.cfg.AdminAPIKey == "" {
		log.Println("ADMIN_API_KEY not set, write endpoints are unprotected")
	}

	srv := api.NewServer(a.cfg.HTTPPort, a.services(), a.cfg.AdminAPIKey)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s", a.cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	a.sessions.Wait()

	log.Println("Shutdown complete")
	return nil
}

func updatePrices(c *cli.Context) error {
	a, err := open(c.Context, false)
	if err != nil {
		return err
	}
	defer a.Close()

	run := a.pricing.UpdateAll
	if c.Bool("stale") {
		run = a.pricing.UpdateStale
	}
	outcome, err := run(c.Context)
	if err != nil {
		return err
	}

	currency, err := a.settings.Currency(c.Context)
	if err != nil {
		currency = domain.DefaultCurrency
	}
	out := c.App.Writer
	for _, r := range outcome.Results {
		switch {
		case r.Success && r.NewPrice != nil:
			fmt.Fprintf(out, "%-10s %s (%s)\n", r.Ticker, domain.FormatMoney(*r.NewPrice, currency), r.Source)
		default:
			fmt.Fprintf(out, "%-10s failed: %s\n", r.Ticker, r.Error)
		}
	}
	fmt.Fprintln(out, outcome.Message())
	return nil
}

func detect(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one ticker is required", 2)
	}
	for _, t := range c.Args().Slice() {
		fmt.Fprintf(c.App.Writer, "%-10s %s\n", domain.NormalizeTicker(t), domain.DetectAssetType(t))
	}
	return nil
}

func exportWorkbook(c *cli.Context) error {
	a, err := open(c.Context, false)
	if err != nil {
		return err
	}
	defer a.Close()

	path := c.String("out")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := a.export.WriteXLSX(c.Context, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return nil
}
