package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/config"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/notify"
	"github.com/meltforce/liftlog/internal/planner"
	"github.com/meltforce/liftlog/internal/plans"
	"github.com/meltforce/liftlog/internal/profile"
	"github.com/meltforce/liftlog/internal/server"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/store"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit (postgres backend)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Open the blob store
	var st store.Store
	switch cfg.Storage.Backend {
	case "postgres":
		dsn := cfg.Storage.Postgres.DSN()
		if err := store.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
		if *migrateOnly {
			log.Info("migrate-only: exiting")
			return
		}
		st, err = store.OpenPostgres(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
	default:
		if *migrateOnly {
			log.Info("migrate-only: nothing to do for sqlite")
			return
		}
		st, err = store.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			log.Error("failed to open store", "path", cfg.Storage.Path, "error", err)
			os.Exit(1)
		}
	}
	defer st.Close()
	log.Info("store opened", "backend", cfg.Storage.Backend)

	cat, err := catalog.Load()
	if err != nil {
		log.Error("failed to load exercise catalog", "error", err)
		os.Exit(1)
	}

	// Wire services
	hist := history.New(st, log)
	templates := planner.New(st, log)
	prof := profile.New(st, log)
	gen := plans.NewGenerator(cfg.Plans.GeneratorURL, st, log)

	sess := session.NewManager(st, cat, hist, templates, notify.NewLogNotifier(log), log)
	if v, found, err := store.LoadJSON[models.VibrationLength](ctx, st, store.KeyVibration); err == nil && found {
		sess.SetVibration(v)
	}
	if err := sess.Restore(ctx); err != nil {
		log.Warn("session restore failed", "error", err)
	}

	srv := server.New(sess, templates, hist, prof, cat, gen, st, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
