package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"pairup-backend/internal/matchmaking"
)

// Enqueuer is the part of *asynq.Client the publisher uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Publisher hands session records to the history queue. It satisfies
// matchmaking.HistoryRecorder.
type Publisher struct {
	client Enqueuer
	log    *slog.Logger
}

func NewPublisher(client Enqueuer, log *slog.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

func (p *Publisher) RecordSession(ctx context.Context, rec matchmaking.SessionRecord) error {
	task, err := NewRecordSessionTask(rec)
	if err != nil {
		return err
	}
	info, err := p.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue history task for %s: %w", rec.SessionID, err)
	}
	p.log.Debug("Queued session history", "session", rec.SessionID, "task", info.ID, "queue", info.Queue)
	return nil
}
