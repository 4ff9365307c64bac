package storage

import (
	"context"
	"errors"
)

// Storage bundles the optional backing stores. Either field is nil when its
// URL is not configured.
type Storage struct {
	DB    *PostgresDB
	Redis *RedisClient
}

func NewStorage(ctx context.Context, db PostgresConfig, redisURL string) (*Storage, error) {
	s := &Storage{}

	if db.URL != "" {
		pg, err := NewPostgresDB(ctx, db)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		s.DB = pg
	}

	if redisURL != "" {
		rc, err := NewRedisClient(ctx, redisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = rc
	}

	return s, nil
}

// Ping checks every configured store.
func (s *Storage) Ping(ctx context.Context) error {
	var errs []error
	if s.DB != nil {
		errs = append(errs, s.DB.Ping(ctx))
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Ping(ctx))
	}
	return errors.Join(errs...)
}

func (s *Storage) Close() error {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}
