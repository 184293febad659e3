// Command trsync is the TransferRoom data ingestion CLI.
//
// Usage:
//
//	trsync init
//	trsync sync
//	trsync sync --competitions-only
//	trsync sync --players-only --max-players 5000
//	trsync sync --test
//	trsync runs --limit 10
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/scoutbase/transferroom-sync/internal/config"
	"github.com/scoutbase/transferroom-sync/internal/db"
	"github.com/scoutbase/transferroom-sync/internal/ingest"
	"github.com/scoutbase/transferroom-sync/internal/maintenance"
	"github.com/scoutbase/transferroom-sync/internal/provider/transferroom"
	"github.com/scoutbase/transferroom-sync/internal/store"
	"github.com/scoutbase/transferroom-sync/internal/syncrun"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "trsync",
		Short: "TransferRoom data ingestion CLI",
	}

	root.AddCommand(syncCmd())
	root.AddCommand(runsCmd())
	root.AddCommand(initCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	var (
		competitionsOnly bool
		playersOnly      bool
		maxPlayers       int
		testMode         bool
		competitionsFile string
		compsFromAPI     bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Ingest competitions and players from TransferRoom",
		RunE: func(cmd *cobra.Command, args []string) error {
			if competitionsOnly && playersOnly {
				return fmt.Errorf("--competitions-only and --players-only are mutually exclusive")
			}
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if cfg.APIEmail == "" || cfg.APIPassword == "" {
					return fmt.Errorf("TRANSFERROOM_EMAIL and TRANSFERROOM_PASSWORD are required")
				}

				session := transferroom.NewSession(cfg.APIBaseURL, cfg.APIEmail, cfg.APIPassword,
					cfg.LoginTimeout, cfg.MaxRetries, logger)
				client := transferroom.NewClient(cfg.APIBaseURL, session,
					cfg.FetchTimeout, cfg.PageDelay, cfg.MaxRetries, logger)
				pipeline := ingest.New(pool, client, ingest.Config{
					PageSize:     cfg.PageSize,
					SubBatchSize: cfg.SubBatchSize,
				}, logger)

				maxRecords := maxPlayers
				if testMode {
					maxRecords = 100
				}
				seedFile := competitionsFile
				if seedFile == "" {
					seedFile = cfg.CompetitionsFile
				}

				start := time.Now()

				if !playersOnly {
					fetch := func(ctx context.Context) ([]json.RawMessage, error) {
						return ingest.LoadCompetitionsFile(seedFile)
					}
					if compsFromAPI {
						fetch = client.FetchCompetitions
					}
					if err := pipeline.SyncCompetitions(ctx, fetch); err != nil {
						return err
					}
				}

				if !competitionsOnly {
					if playersOnly {
						count, err := store.CompetitionCount(ctx, pool)
						if err != nil {
							return err
						}
						if count == 0 {
							logger.Warn("no competitions ingested yet, player competition links will be empty")
						}
					}
					if maxRecords > 0 {
						logger.Info("players ceiling set", "max_records", maxRecords)
					}
					if err := pipeline.SyncPlayers(ctx, maxRecords); err != nil {
						return err
					}
				}

				maintenance.AnalyzeSyncTables(ctx, pool.Pool, logger)
				logger.Info("sync finished", "duration", time.Since(start).Round(time.Second))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&competitionsOnly, "competitions-only", false, "Only ingest competitions (skip players)")
	cmd.Flags().BoolVar(&playersOnly, "players-only", false, "Only ingest players (skip competitions)")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 0, "Maximum players to process (0 = all)")
	cmd.Flags().BoolVar(&testMode, "test", false, "Test mode: process only 100 players")
	cmd.Flags().StringVar(&competitionsFile, "competitions-file", "", "Competition seed file (default from COMPETITIONS_FILE)")
	cmd.Flags().BoolVar(&compsFromAPI, "competitions-from-api", false, "Fetch competitions from the API instead of the seed file")
	return cmd
}

// --------------------------------------------------------------------------
// runs command
// --------------------------------------------------------------------------

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				records, err := syncrun.Recent(ctx, pool, limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Println("no sync runs recorded")
					return nil
				}

				fmt.Printf("%-6s %-13s %-12s %-20s %9s %9s %9s %8s %7s  %s\n",
					"ID", "TYPE", "STATUS", "STARTED", "DURATION", "FETCHED", "INSERTED", "UPDATED", "FAILED", "ERROR")
				for _, r := range records {
					duration := "-"
					if r.Duration != nil {
						duration = fmt.Sprintf("%ds", *r.Duration)
					}
					errMsg := ""
					if r.Error != nil {
						errMsg = *r.Error
						if len(errMsg) > 60 {
							errMsg = errMsg[:60] + "..."
						}
					}
					fmt.Printf("%-6d %-13s %-12s %-20s %9s %9d %9d %8d %7d  %s\n",
						r.ID, r.Type, r.Status, r.StartedAt.Format("2006-01-02 15:04:05"),
						duration, r.Fetched, r.Inserted, r.Updated, r.Failed, errMsg)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

// --------------------------------------------------------------------------
// init command
// --------------------------------------------------------------------------

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the sync tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// Bypasses the pool on purpose: its prepared statements reference
			// tables that may not exist yet.
			if err := db.ApplySchema(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithPool handles config loading, DB connection, and context cancellation.
func runWithPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}
