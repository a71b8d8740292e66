package archive

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/rs/zerolog"
)

// txn is the typed view of the store used inside one Update. It collects
// study transitions and change notifications for delivery after commit.
type txn struct {
	ctx context.Context
	kv  store.KV
	log zerolog.Logger

	studyEvents []store.StudyEventData
	changes     []Change
}

// readJSON decodes key into v. It returns false when the key is missing or
// its value cannot be decoded; the latter is logged and treated as empty.
func (t *txn) readJSON(key store.Key, v any) (bool, error) {
	raw, err := t.kv.Get(t.ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.log.Warn().
			Err(&PersistenceError{Op: "decode", Key: key, Err: err}).
			Int("bytes", len(raw)).
			Msg("corrupt value, using empty default")
		return false, nil
	}
	return true, nil
}

func (t *txn) writeJSON(key store.Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &PersistenceError{Op: "encode", Key: key, Err: err}
	}
	if err := t.kv.Set(t.ctx, key, raw); err != nil {
		return &PersistenceError{Op: "write", Key: key, Err: err}
	}
	return nil
}

func (t *txn) delete(key store.Key) error {
	if err := t.kv.Delete(t.ctx, key); err != nil {
		return &PersistenceError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (t *txn) idList(key store.Key) ([]int, error) {
	var ids []int
	ok, err := t.readJSON(key, &ids)
	if err != nil || !ok {
		return []int{}, err
	}
	return ids, nil
}

func (t *txn) setIDList(key store.Key, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	return t.writeJSON(key, ids)
}

// counters returns the ledger with non-positive entries dropped.
func (t *txn) counters() (map[int]int, error) {
	var raw map[int]int
	ok, err := t.readJSON(store.KeyStudyCounters, &raw)
	if err != nil || !ok {
		return map[int]int{}, err
	}
	out := make(map[int]int, len(raw))
	for id, s := range raw {
		if s > 0 {
			out[id] = s
		}
	}
	return out, nil
}

func (t *txn) setCounters(c map[int]int) error {
	out := make(map[int]int, len(c))
	for id, s := range c {
		if s > 0 {
			out[id] = s
		}
	}
	return t.writeJSON(store.KeyStudyCounters, out)
}

func (t *txn) records(m Mode) (Records, error) {
	var r Records
	ok, err := t.readJSON(m.key(), &r)
	if err != nil || !ok || r == nil {
		return Records{}, err
	}
	return r, nil
}

func (t *txn) setRecords(m Mode, r Records) error {
	if r == nil {
		r = Records{}
	}
	return t.writeJSON(m.key(), r)
}

// combined overlays the namespaces so main wins over fast wins over study.
func (t *txn) combined() (Records, error) {
	out := Records{}
	for _, m := range Modes {
		r, err := t.records(m)
		if err != nil {
			return nil, err
		}
		for id, c := range r {
			out[id] = c
		}
	}
	return out, nil
}

func (t *txn) tally() (Tally, error) {
	var tl Tally
	ok, err := t.readJSON(store.KeyStats, &tl)
	if err != nil || !ok {
		return Tally{}, err
	}
	return tl, nil
}

// intValue reads a plain number key. Values stored as JSON strings ("3")
// are accepted too.
func (t *txn) intValue(key store.Key) (int, error) {
	raw, err := t.kv.Get(t.ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, &PersistenceError{Op: "read", Key: key, Err: err}
	}
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		t.log.Warn().
			Err(&PersistenceError{Op: "decode", Key: key, Err: err}).
			Msg("corrupt value, using 0")
		return 0, nil
	}
	return n, nil
}

func (t *txn) setIntValue(key store.Key, n int) error {
	return t.writeJSON(key, n)
}

func (t *txn) study(ev store.StudyEventData) {
	t.studyEvents = append(t.studyEvents, ev)
}

func (t *txn) notify(c Change) {
	t.changes = append(t.changes, c)
}

// without returns ids minus every occurrence of id.
func without(ids []int, id int) []int {
	return slices.DeleteFunc(slices.Clone(ids), func(x int) bool { return x == id })
}

// withID appends id unless already present.
func withID(ids []int, id int) []int {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
