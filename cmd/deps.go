package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/medquiz/internal/archive"
	"github.com/abhisek/medquiz/internal/bank"
	"github.com/abhisek/medquiz/internal/config"
	"github.com/abhisek/medquiz/internal/llm"
	"github.com/abhisek/medquiz/internal/quiz"
	"github.com/abhisek/medquiz/internal/session"
	"github.com/abhisek/medquiz/internal/store"
	"github.com/abhisek/medquiz/internal/store/pgstore"
	"github.com/abhisek/medquiz/internal/store/redisstore"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/spf13/cobra"
)

// deps are the services a command runs against. The SQLite store always
// holds the event log and snapshots; the archive state lives in the
// configured key-value backend.
type deps struct {
	store    *store.Store
	bank     *bank.Bank
	engine   *archive.Engine
	quiz     *quiz.Service
	sessions *session.Manager

	closers []func() error
}

// openDeps opens the store and builds the archive services.
func openDeps(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()

	b, err := loadBank()
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	d := &deps{store: st, bank: b, closers: []func() error{st.Close}}

	kv, closeKV, err := openKV(ctx, st)
	if err != nil {
		d.Close()
		return nil, err
	}
	if closeKV != nil {
		d.addCloser(closeKV)
	}

	events := st.EventRepo()
	d.engine = archive.New(kv,
		archive.WithLogger(log),
		archive.WithValidator(b),
		archive.WithEventSink(events),
		archive.WithCategories(b.Categories()),
	)
	d.quiz = quiz.NewService(b, d.engine, events, log)
	d.sessions = session.NewManager(d.quiz, events, log)

	log.Debug().
		Str("db", dbPath).
		Str("backend", cfg.Store.Backend).
		Int("questions", b.Len()).
		Msg("store opened")
	return d, nil
}

func (d *deps) addCloser(fn func() error) {
	d.closers = append(d.closers, fn)
}

// Close releases everything opened by openDeps, newest first.
func (d *deps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func loadBank() (*bank.Bank, error) {
	if cfg.BankPath != "" {
		return bank.Load(cfg.BankPath)
	}
	return bank.Default()
}

// openKV returns the key-value backend selected by store.backend and,
// for remote backends, the function that closes it.
func openKV(ctx context.Context, st *store.Store) (store.KeyValueStore, func() error, error) {
	switch cfg.Store.Backend {
	case config.BackendSQLite, "":
		return st.KV(), nil, nil
	case config.BackendMemory:
		log.Warn().Msg("memory backend: archive state is lost on exit")
		return store.NewMemoryKV(), nil, nil
	case config.BackendRedis:
		kv, err := redisstore.Open(ctx, cfg.Store.RedisURL, cfg.Store.RedisPrefix, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		return kv, kv.Close, nil
	case config.BackendPostgres:
		kv, err := pgstore.Open(ctx, cfg.Store.PostgresURL, cfg.Store.MaxConns, log)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return kv, kv.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newTutor builds the tutor on top of the configured LLM provider, with
// every request recorded in the event log.
func (d *deps) newTutor(ctx context.Context) (*tutor.Service, error) {
	if err := cfg.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	provider, err := llm.NewProvider(ctx, cfg.LLM, d.store.EventRepo(), log)
	if err != nil {
		return nil, err
	}
	tc := tutor.DefaultConfig()
	tc.HistoryLimit = cfg.Tutor.HistoryLimit
	tc.Language = cfg.Tutor.Language
	return tutor.NewService(provider, tc, log), nil
}
