package store

import (
	"context"
	"errors"
	"sync"
)

// Key names a persisted value. Every value is a JSON document.
type Key string

// Keys of the archive state. The names match the browser storage layout so
// exported data can be moved between the two.
const (
	KeyCorrectAnswers   Key = "correctAnswersList"
	KeyIncorrectAnswers Key = "incorrectAnswersList"
	KeyStudyCounters    Key = "studyQuestionCounters"
	KeyAnswersMain      Key = "userAnswers"
	KeyAnswersFast      Key = "userAnswersFast"
	KeyAnswersStudy     Key = "userAnswersStudy"
	KeyStats            Key = "stats"
	KeyFavorites        Key = "favorites"
)

// ErrNotFound is returned by Get when the key has never been written or was
// deleted.
var ErrNotFound = errors.New("store: key not found")

// KV reads and writes single keys.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error
}

// KeyValueStore is a KV that can apply a group of operations atomically.
type KeyValueStore interface {
	KV

	// Update runs fn with a transactional view of the store. Writes made
	// through tx are visible to later reads in fn and are applied only when
	// fn returns nil.
	Update(ctx context.Context, fn func(tx KV) error) error
}

// MemoryKV is an in-process KeyValueStore. The zero value is not usable;
// call NewMemoryKV.
type MemoryKV struct {
	mu   sync.Mutex
	data map[Key][]byte
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[Key][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(key)
}

func (m *MemoryKV) get(key Key) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Set(_ context.Context, key Key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Update holds the store lock for the duration of fn.
func (m *MemoryKV) Update(ctx context.Context, fn func(tx KV) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := NewBuffer(func(_ context.Context, key Key) ([]byte, error) {
		return m.get(key)
	})
	if err := fn(buf); err != nil {
		return err
	}
	for _, w := range buf.Writes() {
		if w.Deleted {
			delete(m.data, w.Key)
			continue
		}
		m.data[w.Key] = w.Value
	}
	return nil
}

// Write is a pending change recorded by a Buffer.
type Write struct {
	Key     Key
	Value   []byte
	Deleted bool
}

// Buffer collects writes on top of a read function so a backend without
// native read-your-writes transactions can stage changes and apply them in
// one step.
type Buffer struct {
	read    func(ctx context.Context, key Key) ([]byte, error)
	pending map[Key]*Write
	order   []Key
}

// NewBuffer returns a Buffer reading through to read for keys it has not
// written.
func NewBuffer(read func(ctx context.Context, key Key) ([]byte, error)) *Buffer {
	return &Buffer{read: read, pending: make(map[Key]*Write)}
}

func (b *Buffer) Get(ctx context.Context, key Key) ([]byte, error) {
	if w, ok := b.pending[key]; ok {
		if w.Deleted {
			return nil, ErrNotFound
		}
		return append([]byte(nil), w.Value...), nil
	}
	return b.read(ctx, key)
}

func (b *Buffer) Set(_ context.Context, key Key, value []byte) error {
	b.stage(&Write{Key: key, Value: append([]byte(nil), value...)})
	return nil
}

func (b *Buffer) Delete(_ context.Context, key Key) error {
	b.stage(&Write{Key: key, Deleted: true})
	return nil
}

func (b *Buffer) stage(w *Write) {
	if _, ok := b.pending[w.Key]; !ok {
		b.order = append(b.order, w.Key)
	}
	b.pending[w.Key] = w
}

// Writes returns the staged changes in first-write order, one per key.
func (b *Buffer) Writes() []Write {
	out := make([]Write, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, *b.pending[k])
	}
	return out
}
