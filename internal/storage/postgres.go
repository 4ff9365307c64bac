package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pairup-backend/internal/matchmaking"
)

type PostgresConfig struct {
	URL            string
	MaxConnections int32
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(ctx context.Context, cfg PostgresConfig) (*PostgresDB, error) {
	config, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConnections > 0 {
		config.MaxConns = cfg.MaxConnections
	}
	if cfg.MaxIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxIdleTime
	}
	if cfg.MaxLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() {
	db.pool.Close()
}

func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// EnsureSchema creates the history table when missing.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schemaSessionHistory)
	return err
}

// RecordSession stores an ended session. It satisfies
// matchmaking.HistoryRecorder.
func (db *PostgresDB) RecordSession(ctx context.Context, rec matchmaking.SessionRecord) error {
	row := HistoryFromRecord(rec)
	query := `
		INSERT INTO session_history
			(id, session_id, mode, participant_a, participant_b, started_at, ended_at, duration_seconds, end_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := db.pool.Exec(ctx, query,
		row.ID, row.SessionID, row.Mode, row.ParticipantA, row.ParticipantB,
		row.StartedAt, row.EndedAt, row.DurationSeconds, row.EndReason)
	if err != nil {
		return fmt.Errorf("insert session %s: %w", rec.SessionID, err)
	}
	return nil
}

// RecentSessions returns the latest sessions a participant took part in.
func (db *PostgresDB) RecentSessions(ctx context.Context, participant string, limit int) ([]SessionHistory, error) {
	query := `
		SELECT id, session_id, mode, participant_a, participant_b, started_at,
		       ended_at, duration_seconds, end_reason
		FROM session_history
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := db.pool.Query(ctx, query, participant, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[SessionHistory])
}

func HistoryFromRecord(rec matchmaking.SessionRecord) SessionHistory {
	return SessionHistory{
		ID:              uuid.New(),
		SessionID:       rec.SessionID,
		Mode:            string(rec.Mode),
		ParticipantA:    string(rec.ParticipantA),
		ParticipantB:    string(rec.ParticipantB),
		StartedAt:       rec.StartedAt.UTC(),
		EndedAt:         rec.EndedAt.UTC(),
		DurationSeconds: int(rec.Duration().Seconds()),
		EndReason:       rec.Reason,
	}
}
