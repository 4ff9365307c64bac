// Package history moves ended sessions into long-term storage through an
// asynq queue, so a slow database never holds up session teardown.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"pairup-backend/internal/matchmaking"
)

const (
	TypeRecordSession = "history:record"
	QueueName         = "history"
)

func NewRecordSessionTask(rec matchmaking.SessionRecord) (*asynq.Task, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session record: %w", err)
	}
	return asynq.NewTask(TypeRecordSession, payload,
		asynq.Queue(QueueName),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	), nil
}

func parseRecordSessionTask(t *asynq.Task) (matchmaking.SessionRecord, error) {
	var rec matchmaking.SessionRecord
	if err := json.Unmarshal(t.Payload(), &rec); err != nil {
		return rec, fmt.Errorf("decode session record: %w", err)
	}
	return rec, nil
}
