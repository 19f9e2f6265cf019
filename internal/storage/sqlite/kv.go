package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/lifecoach/pkg/log"
	"github.com/sandevgo/lifecoach/pkg/retry"
)

// KVStore keeps whole collections as JSON blobs, one row per key.
type KVStore struct {
	db      *sql.DB
	retrier *retry.Retrier
}

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{
		db:      db,
		retrier: retry.NewRetrier(retry.NewStoreConfig(isBusy)),
	}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

	attempt := 0
	err := s.retrier.Do(ctx, func() error {
		attempt++
		_, err := s.db.ExecContext(ctx, query, key, value)
		if err != nil && isBusy(err) {
			log.FromCtx(ctx).Debug().Err(err).Str("key", key).Int("attempt", attempt).Msg("kv write contended")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}
