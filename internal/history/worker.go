package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"pairup-backend/internal/matchmaking"
)

// Store persists session records.
type Store interface {
	RecordSession(ctx context.Context, rec matchmaking.SessionRecord) error
}

// Worker consumes the history queue.
type Worker struct {
	server *asynq.Server
	store  Store
	log    *slog.Logger
}

func NewWorker(redis asynq.RedisConnOpt, store Store, concurrency int, log *slog.Logger) *Worker {
	server := asynq.NewServer(redis, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
		Logger:      asynqLogger{log: log},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("History task failed", "type", task.Type(), "error", err)
		}),
	})
	return &Worker{server: server, store: store, log: log}
}

func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeRecordSession, w.HandleRecordSession)
	return mux
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	if err := w.server.Start(w.Mux()); err != nil {
		return fmt.Errorf("start history worker: %w", err)
	}
	w.log.Info("History worker started")
	return nil
}

func (w *Worker) Stop() {
	w.server.Shutdown()
	w.log.Info("History worker stopped")
}

func (w *Worker) HandleRecordSession(ctx context.Context, task *asynq.Task) error {
	rec, err := parseRecordSessionTask(task)
	if err != nil {
		// a malformed payload will never succeed
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err := w.store.RecordSession(ctx, rec); err != nil {
		return err
	}
	w.log.Debug("Recorded session history", "session", rec.SessionID, "reason", rec.Reason)
	return nil
}

// asynqLogger routes asynq's internal logging through slog.
type asynqLogger struct {
	log *slog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Info(args ...any)  { l.log.Info(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Error(args ...any) { l.log.Error(fmt.Sprint(args...), "component", "asynq") }
func (l asynqLogger) Fatal(args ...any) { l.log.Error(fmt.Sprint(args...), "component", "asynq", "fatal", true) }
