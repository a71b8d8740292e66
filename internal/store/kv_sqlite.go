package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sqliteKV implements KeyValueStore on the kv_entries table.
type sqliteKV struct {
	drv *entsql.Driver
}

func (s *sqliteKV) Get(ctx context.Context, key Key) ([]byte, error) {
	return kvGet(ctx, s.drv, key)
}

func (s *sqliteKV) Set(ctx context.Context, key Key, value []byte) error {
	return kvSet(ctx, s.drv, key, value)
}

func (s *sqliteKV) Delete(ctx context.Context, key Key) error {
	return kvDelete(ctx, s.drv, key)
}

func (s *sqliteKV) Update(ctx context.Context, fn func(tx KV) error) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin kv transaction: %w", err)
	}
	if err := fn(&sqliteTxKV{tx: tx}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit kv transaction: %w", err)
	}
	return nil
}

// sqliteTxKV routes KV calls through an open transaction.
type sqliteTxKV struct {
	tx dialect.Tx
}

func (t *sqliteTxKV) Get(ctx context.Context, key Key) ([]byte, error) {
	return kvGet(ctx, t.tx, key)
}

func (t *sqliteTxKV) Set(ctx context.Context, key Key, value []byte) error {
	return kvSet(ctx, t.tx, key, value)
}

func (t *sqliteTxKV) Delete(ctx context.Context, key Key) error {
	return kvDelete(ctx, t.tx, key)
}

func kvGet(ctx context.Context, ex dialect.ExecQuerier, key Key) ([]byte, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("value").
		From(entsql.Table(tableKV)).
		Where(entsql.EQ("name", string(key))).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		return nil, ErrNotFound
	}
	var value []byte
	if err := rows.Scan(&value); err != nil {
		return nil, fmt.Errorf("scan %s: %w", key, err)
	}
	return value, nil
}

func kvSet(ctx context.Context, ex dialect.ExecQuerier, key Key, value []byte) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableKV).
		Columns("name", "value", "updated_at").
		Values(string(key), value, time.Now().UTC()).
		OnConflict(
			entsql.ConflictColumns("name"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func kvDelete(ctx context.Context, ex dialect.ExecQuerier, key Key) error {
	query, args := entsql.Dialect(dialect.SQLite).
		Delete(tableKV).
		Where(entsql.EQ("name", string(key))).
		Query()

	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
