package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/history"
	liftlogmcp "github.com/meltforce/liftlog/internal/mcp"
	"github.com/meltforce/liftlog/internal/planner"
	"github.com/meltforce/liftlog/internal/profile"
	"github.com/meltforce/liftlog/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// stdio transport owns stdout, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var st store.Store
	switch cfg.Storage.Backend {
	case "postgres":
		st, err = store.OpenPostgres(context.Background(), cfg.Storage.Postgres.DSN())
	default:
		st, err = store.OpenSQLite(cfg.Storage.Path)
	}
	if err != nil {
		log.Error("failed to open store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	cat, err := catalog.Load()
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}

	hist := history.New(st, log)
	templates := planner.New(st, log)
	prof := profile.New(st, log)

	s := liftlogmcp.New(hist, templates, prof, cat, Version, log)

	log.Info("LiftLog MCP server starting", "version", Version, "backend", cfg.Storage.Backend)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
