package archive

import (
	"context"
	"encoding/json"
	"errors"
	"maps"

	"github.com/abhisek/medquiz/internal/store"
)

// SnapshotVersion is written into every snapshot taken by the engine.
const SnapshotVersion = 1

// persistedKeys lists every key the engine owns, category keys included.
func (e *Engine) persistedKeys() []store.Key {
	keys := []store.Key{
		store.KeyCorrectAnswers,
		store.KeyIncorrectAnswers,
		store.KeyStudyCounters,
		store.KeyAnswersMain,
		store.KeyAnswersFast,
		store.KeyAnswersStudy,
		store.KeyStats,
		store.KeyFavorites,
	}
	for _, c := range e.categories {
		keys = append(keys, ProgressKey(c), AnsweredKey(c))
	}
	return keys
}

// Snapshot copies the raw value of every persisted key.
func (e *Engine) Snapshot(ctx context.Context) (store.SnapshotData, error) {
	data := store.SnapshotData{Version: SnapshotVersion, Values: map[store.Key]json.RawMessage{}}
	err := e.view(ctx, func(t *txn) error {
		for _, k := range e.persistedKeys() {
			raw, err := t.kv.Get(ctx, k)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return &PersistenceError{Op: "read", Key: k, Err: err}
			}
			if !json.Valid(raw) {
				e.log.Warn().Str("key", string(k)).Msg("skipping corrupt value in snapshot")
				continue
			}
			data.Values[k] = json.RawMessage(raw)
		}
		return nil
	})
	return data, err
}

// Restore replaces the persisted state with data. Keys absent from data are
// deleted.
func (e *Engine) Restore(ctx context.Context, data store.SnapshotData) error {
	return e.update(ctx, func(t *txn) error {
		for _, k := range e.persistedKeys() {
			raw, ok := data.Values[k]
			if !ok {
				if err := t.delete(k); err != nil {
					return err
				}
				continue
			}
			if err := t.kv.Set(ctx, k, raw); err != nil {
				return &PersistenceError{Op: "write", Key: k, Err: err}
			}
		}
		t.notify(Change{Kind: ChangeRestore})
		return nil
	})
}

// Export returns a typed copy of the persisted state.
func (e *Engine) Export(ctx context.Context) (*State, error) {
	st := &State{
		Answers:  map[Mode]Records{},
		Progress: map[string]Progress{},
	}
	err := e.view(ctx, func(t *txn) error {
		var err error
		if st.Correct, err = t.idList(store.KeyCorrectAnswers); err != nil {
			return err
		}
		if st.Incorrect, err = t.idList(store.KeyIncorrectAnswers); err != nil {
			return err
		}
		counters, err := t.counters()
		if err != nil {
			return err
		}
		st.Counters = maps.Clone(counters)
		for _, m := range Modes {
			if st.Answers[m], err = t.records(m); err != nil {
				return err
			}
		}
		if st.Tally, err = t.tally(); err != nil {
			return err
		}
		if st.Favorites, err = t.idList(store.KeyFavorites); err != nil {
			return err
		}
		for _, c := range e.categories {
			if st.Progress[c], err = t.progress(c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}
