package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"formquery/internal/api"
	"formquery/internal/config"
	internaldb "formquery/internal/db"
	"formquery/internal/engine"
	"formquery/internal/repository"
	"formquery/internal/service"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// writeDB: single-connection pool for serialized writes.
	// readDB:  concurrent pool for reads.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	logger.Info("running migrations", "db", cfg.DBPath)
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	subs := repository.NewSubmissionRepo(writeDB, readDB)
	fields := repository.NewFieldRepo(readDB)
	dir := repository.NewDirectoryRepo(readDB)
	history := repository.NewHistoryRepo(writeDB, readDB)

	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), writeDB, subs, logger); err != nil {
			return err
		}
	}

	en := engine.New(subs, fields, dir, engine.NewRegistry(), logger)
	querySvc := service.NewQueryService(en, history, fields, subs, logger)

	router := api.NewRouter(api.NewHandler(querySvc, logger), api.RouterConfig{
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
	return http.ListenAndServe(cfg.ListenAddr, router)
}
