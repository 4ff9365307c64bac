package storage

import (
	"time"

	"github.com/google/uuid"
)

// SessionHistory is one row of the session_history table.
type SessionHistory struct {
	ID              uuid.UUID `json:"id" db:"id"`
	SessionID       string    `json:"session_id" db:"session_id"`
	Mode            string    `json:"mode" db:"mode"`
	ParticipantA    string    `json:"participant_a" db:"participant_a"`
	ParticipantB    string    `json:"participant_b" db:"participant_b"`
	StartedAt       time.Time `json:"started_at" db:"started_at"`
	EndedAt         time.Time `json:"ended_at" db:"ended_at"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	EndReason       string    `json:"end_reason" db:"end_reason"`
}

const schemaSessionHistory = `
	CREATE TABLE IF NOT EXISTS session_history (
		id               UUID PRIMARY KEY,
		session_id       TEXT NOT NULL,
		mode             TEXT NOT NULL,
		participant_a    TEXT NOT NULL,
		participant_b    TEXT NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ NOT NULL,
		duration_seconds INTEGER NOT NULL,
		end_reason       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS session_history_participant_a_idx ON session_history (participant_a, ended_at DESC);
	CREATE INDEX IF NOT EXISTS session_history_participant_b_idx ON session_history (participant_b, ended_at DESC);`
