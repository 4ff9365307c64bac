package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"pairup-backend/internal/api"
	"pairup-backend/internal/api/handlers"
	"pairup-backend/internal/config"
	"pairup-backend/internal/history"
	"pairup-backend/internal/logging"
	"pairup-backend/internal/matchmaking"
	"pairup-backend/internal/notify"
	"pairup-backend/internal/sessions"
	"pairup-backend/internal/spaces"
	"pairup-backend/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStorage(ctx, storage.PostgresConfig{
		URL:            cfg.Database.URL,
		MaxConnections: cfg.Database.MaxConnections,
		MaxIdleTime:    cfg.Database.MaxIdleTime,
		MaxLifetime:    cfg.Database.MaxLifetime,
	}, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	directory := spaces.NewDirectory(log.With("component", "spaces"))
	state := matchmaking.NewState(log)

	wsManager := sessions.NewWSManager(state, directory, log.With("component", "websocket"))

	var publisher notify.Publisher
	if store.Redis != nil {
		publisher = store.Redis
	}
	fanout := notify.NewFanout(wsManager, publisher, log)

	recorder, worker, closeRecorder, err := historyRecorder(cfg, store, log.With("component", "history"))
	if err != nil {
		return err
	}
	defer closeRecorder()

	opts := []matchmaking.ManagerOption{}
	if recorder != nil {
		opts = append(opts, matchmaking.WithHistory(recorder))
	}
	manager := matchmaking.NewManager(state, directory, fanout, cfg.Queue.SearchTimeout, log, opts...)
	directory.OnClosed(manager.SpaceClosed)

	reaper := matchmaking.NewReaper(manager, directory, cfg.Queue.SessionMaxAge, log)
	processor := matchmaking.NewProcessor(manager, reaper, fanout, matchmaking.ProcessorConfig{
		PairInterval:    cfg.Queue.PairInterval,
		CleanupInterval: cfg.Queue.CleanupInterval,
		StatsInterval:   cfg.Queue.StatsInterval,
	}, log)
	processor.Start(ctx)

	deps := &api.Dependencies{
		Storage:      store,
		MatchHandler: handlers.NewMatchHandler(manager, log),
		SpaceHandler: handlers.NewSpaceHandler(directory),
		WebSocket:    wsManager.HandleWebSocket,
		Log:          log,
	}
	if store.DB != nil {
		deps.HistoryHandler = handlers.NewHistoryHandler(store.DB)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Starting server", "port", cfg.Server.Port,
			"search_timeout", cfg.Queue.SearchTimeout, "pair_interval", cfg.Queue.PairInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			processor.Stop()
			return fmt.Errorf("server failed: %w", err)
		}
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	processor.Stop()
	manager.Shutdown(shutdownCtx)
	if worker != nil {
		worker.Stop()
	}

	log.Info("Server exited")
	return nil
}

// historyRecorder picks where ended sessions go. With Redis and Postgres the
// records travel through the asynq history queue; with Postgres alone they
// are written directly.
func historyRecorder(cfg *config.Config, store *storage.Storage, log *slog.Logger) (matchmaking.HistoryRecorder, *history.Worker, func(), error) {
	noop := func() {}
	if store.DB == nil {
		log.Info("No database configured, session history disabled")
		return nil, nil, noop, nil
	}
	if store.Redis == nil {
		return store.DB, nil, noop, nil
	}

	opt, err := asynq.ParseRedisURI(cfg.Redis.URL)
	if err != nil {
		return nil, nil, noop, fmt.Errorf("parse redis url for history queue: %w", err)
	}

	worker := history.NewWorker(opt, store.DB, cfg.Redis.HistoryConcurrency, log)
	if err := worker.Start(); err != nil {
		return nil, nil, noop, err
	}

	client := asynq.NewClient(opt)
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close history client", "error", err)
		}
	}
	return history.NewPublisher(client, log), worker, closeClient, nil
}
