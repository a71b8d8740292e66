package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// pragmas are applied to every connection in the pool through the DSN and
// once more on the first connection so failures surface at Open time.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
	{"synchronous", "NORMAL"},
}

// Store holds the SQLite handle, the ent driver and the shared event
// sequence. It hands out the key-value store, the event log and the
// snapshot repository.
type Store struct {
	db  *sql.DB
	drv *entsql.Driver
	seq *sequenceCounter
}

// Open connects to the SQLite file at dsn, tunes it for a single local
// user and creates any missing tables.
func Open(dsn string) (_ *Store, err error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	drv := entsql.OpenDB(dialect.SQLite, db)
	defer func() {
		if err != nil {
			drv.Close()
		}
	}()

	if err := applyPragmas(db); err != nil {
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := migrate(context.Background(), drv); err != nil {
		return nil, err
	}
	seq, err := newSequenceCounter(db)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, drv: drv, seq: seq}, nil
}

func migrate(ctx context.Context, drv *entsql.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (s *Store) Driver() *entsql.Driver { return s.drv }

// DB exposes the raw handle for queries the ent builder cannot express.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.drv.Close() }

// KV is the archive key-value store in the kv_entries table.
func (s *Store) KV() KeyValueStore { return &sqliteKV{drv: s.drv} }

func (s *Store) EventRepo() EventRepo { return &eventRepo{drv: s.drv, seq: s.seq} }

func (s *Store) SnapshotRepo() SnapshotRepo { return &snapshotRepo{drv: s.drv} }

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	var b strings.Builder
	b.WriteString(dsn)
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range pragmas {
		fmt.Fprintf(&b, "%s_pragma=%s(%s)", sep, p.name, p.value)
		sep = "&"
	}
	return b.String()
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := "PRAGMA " + p.name + " = " + p.value
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// DefaultDBPath is $MEDQUIZ_DB when set, otherwise medquiz/medquiz.db
// under the XDG data directory. The parent directory is created.
func DefaultDBPath() (string, error) {
	p := os.Getenv("MEDQUIZ_DB")
	if p == "" {
		dataHome, err := xdgDataHome()
		if err != nil {
			return "", err
		}
		p = filepath.Join(dataHome, "medquiz", "medquiz.db")
	}
	return p, EnsureDir(p)
}

func xdgDataHome() (string, error) {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
