package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// snapshotRepo implements SnapshotRepo on the snapshots table.
type snapshotRepo struct {
	drv *entsql.Driver
}

func (r *snapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap.Data)
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableSnapshots).
		Columns("sequence", "timestamp", "label", "data").
		Values(snap.Sequence, snap.Timestamp.UTC(), snap.Label, data).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("snapshot id: %w", err)
	}
	snap.ID = int(id)
	return nil
}

func (r *snapshotRepo) Latest(ctx context.Context) (*Snapshot, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "label", "data").
		From(entsql.Table(tableSnapshots)).
		OrderBy(entsql.Desc("timestamp"), entsql.Desc("id")).
		Limit(1)
	snaps, err := r.load(ctx, sel, true)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (r *snapshotRepo) Get(ctx context.Context, id int) (*Snapshot, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "label", "data").
		From(entsql.Table(tableSnapshots)).
		Where(entsql.EQ("id", id))
	snaps, err := r.load(ctx, sel, true)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %d: %w", id, err)
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

func (r *snapshotRepo) List(ctx context.Context, limit int) ([]Snapshot, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select("id", "sequence", "timestamp", "label").
		From(entsql.Table(tableSnapshots)).
		OrderBy(entsql.Desc("timestamp"), entsql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	snaps, err := r.load(ctx, sel, false)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return snaps, nil
}

func (r *snapshotRepo) Prune(ctx context.Context, keep int) error {
	var kept []Snapshot
	if keep > 0 {
		var err error
		kept, err = r.List(ctx, keep)
		if err != nil {
			return fmt.Errorf("query snapshots for prune: %w", err)
		}
		if len(kept) < keep {
			return nil // fewer than keep snapshots exist
		}
	}

	ids := make([]any, 0, len(kept))
	for _, s := range kept {
		ids = append(ids, s.ID)
	}
	del := entsql.Dialect(dialect.SQLite).Delete(tableSnapshots)
	if len(ids) > 0 {
		del.Where(entsql.NotIn("id", ids...))
	}
	query, args := del.Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

func (r *snapshotRepo) load(ctx context.Context, sel *entsql.Selector, withData bool) ([]Snapshot, error) {
	query, args := sel.Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s    Snapshot
			data []byte
		)
		dest := []any{&s.ID, &s.Sequence, &s.Timestamp, &s.Label}
		if withData {
			dest = append(dest, &data)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if withData {
			if err := json.Unmarshal(data, &s.Data); err != nil {
				return nil, fmt.Errorf("unmarshal snapshot data: %w", err)
			}
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
