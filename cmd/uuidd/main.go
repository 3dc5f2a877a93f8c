// cmd/uuidd/main.go
//
// uuidd – read-only uuid resolution daemon.
//
// Boot sequence
// -------------
//
//  1. Load env vars (system-wide file → .env fallback).
//
//  2. Load config (YAML + UUIDD_ env), then start the daily rotating
//     logger (tees to console when running in a TTY).
//
//  3. Resolve `vault:` secrets when VAULT_ADDR is set.
//
//  4. Open the MySQL pool and build the resolution engine.
//
//  5. Open the optional GeoLite2 database for request info.
//
//  6. Serve /uuid/{id}, /healthz, and /metrics until SIGINT or SIGTERM,
//     then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/contentdb/internal/api"
	"github.com/yanizio/contentdb/internal/config"
	"github.com/yanizio/contentdb/internal/database"
	"github.com/yanizio/contentdb/internal/logger"
	"github.com/yanizio/contentdb/internal/requestinfo"
	"github.com/yanizio/contentdb/internal/server"
	"github.com/yanizio/contentdb/internal/uuid"
	"github.com/yanizio/contentdb/internal/vault"
)

const serverEnvPath = "/usr/local/etc/uuidd/global.env"

// loadEnv prefers the system-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

func main() {
	loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.S().Errorw("uuidd stopped", "err", err)
		_ = zap.L().Sync()
		log.Fatalf("uuidd: %v", err)
	}
	_ = zap.L().Sync()
}

func run(ctx context.Context) error {
	//
	// ── 1.  Config and logger ───────────────────────────────────────────
	//
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logOut, err := logger.New(logger.Options{
		Root:  cfg.Paths.Root,
		Tee:   logger.IsTTY(),
		Debug: cfg.Log.Debug,
	})
	if err != nil {
		return err
	}

	//
	// ── 2.  Secrets ─────────────────────────────────────────────────────
	//
	var secrets config.SecretResolver
	if vault.Configured() {
		vc, err := vault.New(ctx)
		if err != nil {
			return err
		}
		secrets = vc
	}
	if err := config.ResolveSecrets(ctx, cfg, secrets); err != nil {
		return err
	}

	//
	// ── 3.  Store and engine ────────────────────────────────────────────
	//
	dsn, err := cfg.Database.DataSource()
	if err != nil {
		return err
	}
	logOut.Infow("connecting to database")
	db, err := database.OpenWithOptions(ctx, dsn, database.Options{
		MaxOpenConns: cfg.Database.MaxOpen,
		MaxIdleConns: cfg.Database.MaxIdle,
		Retries:      database.DefaultOptions.Retries,
		RetryBackoff: database.DefaultOptions.RetryBackoff,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logOut.Infow("database online")

	engine := uuid.New(database.NewPool(db), uuid.Options{
		Consistency: uuid.Consistency(cfg.Resolver.Consistency),
		MaxDepth:    cfg.Resolver.MaxDepth,
	})

	//
	// ── 4.  Request info ────────────────────────────────────────────────
	//
	enricher, err := requestinfo.New(cfg.HTTP.GeoIPDB)
	if err != nil {
		return err
	}
	defer enricher.Close()

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, api.NewRouter(engine, db, enricher))
	return server.Run(ctx, srv)
}
