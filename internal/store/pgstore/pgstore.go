// Package pgstore implements store.KeyValueStore on PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// updateLockID is the advisory lock taken by every Update so transactions
// over the same table never interleave.
const updateLockID int64 = 0x6d6564717a

const createTable = `CREATE TABLE IF NOT EXISTS medquiz_kv (
	name       TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// KV is a PostgreSQL-backed key-value store.
type KV struct {
	pool *pgxpool.Pool
}

// Open creates and validates a connection pool, then ensures the table
// exists.
func Open(ctx context.Context, url string, maxConns int32, log zerolog.Logger) (*KV, error) {
	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	log.Info().
		Int32("max_conns", poolCfg.MaxConns).
		Msg("PostgreSQL connected")

	return &KV{pool: pool}, nil
}

// Close closes the pool.
func (k *KV) Close() error {
	k.pool.Close()
	return nil
}

func (k *KV) Get(ctx context.Context, key store.Key) ([]byte, error) {
	return get(ctx, k.pool, key)
}

func (k *KV) Set(ctx context.Context, key store.Key, value []byte) error {
	return set(ctx, k.pool, key, value)
}

func (k *KV) Delete(ctx context.Context, key store.Key) error {
	return del(ctx, k.pool, key)
}

func (k *KV) Update(ctx context.Context, fn func(tx store.KV) error) error {
	return pgx.BeginFunc(ctx, k.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, updateLockID); err != nil {
			return fmt.Errorf("acquire update lock: %w", err)
		}
		return fn(&txKV{tx: tx})
	})
}

type txKV struct {
	tx pgx.Tx
}

func (t *txKV) Get(ctx context.Context, key store.Key) ([]byte, error) {
	return get(ctx, t.tx, key)
}

func (t *txKV) Set(ctx context.Context, key store.Key, value []byte) error {
	return set(ctx, t.tx, key, value)
}

func (t *txKV) Delete(ctx context.Context, key store.Key) error {
	return del(ctx, t.tx, key)
}

func get(ctx context.Context, q querier, key store.Key) ([]byte, error) {
	var value []byte
	err := q.QueryRow(ctx, `SELECT value FROM medquiz_kv WHERE name = $1`, string(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, q querier, key store.Key, value []byte) error {
	_, err := q.Exec(ctx, `
		INSERT INTO medquiz_kv (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		string(key), value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func del(ctx context.Context, q querier, key store.Key) error {
	if _, err := q.Exec(ctx, `DELETE FROM medquiz_kv WHERE name = $1`, string(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
