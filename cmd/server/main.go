package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/NarekNk/todo-task/internal/cache"
	"github.com/NarekNk/todo-task/internal/config"
	"github.com/NarekNk/todo-task/internal/controller"
	"github.com/NarekNk/todo-task/internal/database"
	"github.com/NarekNk/todo-task/internal/queue"
	"github.com/NarekNk/todo-task/internal/repository"
	"github.com/NarekNk/todo-task/internal/routes"
	"github.com/NarekNk/todo-task/internal/worker"
	"github.com/NarekNk/todo-task/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Config load failed", "error", err)
		os.Exit(1)
	}

	var (
		store repository.Store
		sink  worker.EventSink
		db    *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = database.Open(ctx, cfg)
		if err != nil {
			logger.Error(ctx, "Database not available", "error", err)
			os.Exit(1)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			logger.Error(ctx, "Schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		pg := repository.NewPostgres(db)
		store, sink = pg, pg
	} else {
		logger.Warn(ctx, "DATABASE_URL not set, using in-memory store")
		store = repository.NewMemory()
	}

	pageCache := cache.New(ctx, cfg)
	queue.EnsureTopic(ctx, cfg)
	publisher := queue.NewPublisher(ctx, cfg)
	defer publisher.Close()

	tasks := controller.NewTasks(store, pageCache, publisher, db)
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      routes.Router(cfg, tasks),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return worker.Run(gctx, cfg, sink)
	})
	g.Go(func() error {
		logger.Info(gctx, "HTTP server listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Server error", "error", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Server stopped")
}
