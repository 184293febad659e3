// Package config provides centralized configuration loaded from environment
// variables. Shared by every trsync subcommand.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	SyncRunsTable     = "data_sync_runs"
	CountriesTable    = "transferroom_countries"
	CompetitionsTable = "transferroom_competitions"
	PlayersTable      = "transferroom_players"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// TransferRoom API
	APIBaseURL   string
	APIEmail     string
	APIPassword  string
	LoginTimeout time.Duration
	FetchTimeout time.Duration
	MaxRetries   int

	// Ingestion cadence
	PageSize     int           // players fetched per API page
	SubBatchSize int           // records committed per transaction
	PageDelay    time.Duration // minimum spacing between page fetches

	// Competitions seed source
	CompetitionsFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("TRANSFERROOM_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or TRANSFERROOM_DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIBaseURL:   envOr("TRANSFERROOM_BASE_URL", "https://apiprod.transferroom.com/api/external"),
		APIEmail:     envOr("TRANSFERROOM_EMAIL", ""),
		APIPassword:  envOr("TRANSFERROOM_PASSWORD", ""),
		LoginTimeout: time.Duration(envInt("TRANSFERROOM_LOGIN_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchTimeout: time.Duration(envInt("TRANSFERROOM_FETCH_TIMEOUT_SECONDS", 60)) * time.Second,
		MaxRetries:   envInt("TRANSFERROOM_MAX_RETRIES", 3),

		PageSize:     envInt("SYNC_PAGE_SIZE", 10000),
		SubBatchSize: envInt("SYNC_SUB_BATCH_SIZE", 100),
		PageDelay:    time.Duration(envInt("SYNC_PAGE_DELAY_MS", 500)) * time.Millisecond,

		CompetitionsFile: envOr("COMPETITIONS_FILE", "competitions.json"),
	}, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
