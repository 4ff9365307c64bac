// Package notify fans participant notifications out to the live websocket
// connections and, when Redis is configured, to pub/sub channels other
// services listen on.
package notify

import (
	"context"
	"log/slog"

	"pairup-backend/internal/matchmaking"
	"pairup-backend/internal/sessions"
)

// Local delivers to connections owned by this process.
type Local interface {
	matchmaking.Notifier
	Broadcast(ctx context.Context, n matchmaking.Notification)
}

// Publisher is the Redis side of the fan-out.
type Publisher interface {
	PublishUserEvent(ctx context.Context, userID string, payload []byte) (int64, error)
	PublishBroadcast(ctx context.Context, payload []byte) error
}

type Fanout struct {
	local Local
	pub   Publisher
	log   *slog.Logger
}

// NewFanout builds a fan-out. pub may be nil.
func NewFanout(local Local, pub Publisher, log *slog.Logger) *Fanout {
	return &Fanout{local: local, pub: pub, log: log}
}

// Notify delivers locally first. A publish failure is logged, never
// returned.
func (f *Fanout) Notify(ctx context.Context, id matchmaking.ParticipantID, n matchmaking.Notification) error {
	err := f.local.Notify(ctx, id, n)

	if f.pub != nil {
		payload, encErr := sessions.EncodeNotification(n)
		if encErr != nil {
			return encErr
		}
		if _, pubErr := f.pub.PublishUserEvent(ctx, string(id), payload); pubErr != nil {
			f.log.Warn("Failed to publish notification", "participant", id, "type", n.Type, "error", pubErr)
		}
	}
	return err
}

func (f *Fanout) Broadcast(ctx context.Context, n matchmaking.Notification) {
	f.local.Broadcast(ctx, n)

	if f.pub == nil {
		return
	}
	payload, err := sessions.EncodeNotification(n)
	if err != nil {
		f.log.Error("Failed to encode broadcast", "type", n.Type, "error", err)
		return
	}
	if err := f.pub.PublishBroadcast(ctx, payload); err != nil {
		f.log.Warn("Failed to publish broadcast", "type", n.Type, "error", err)
	}
}
