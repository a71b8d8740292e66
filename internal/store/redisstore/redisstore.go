// Package redisstore implements store.KeyValueStore on Redis.
//
// Every mutation bumps a version key. Update watches that key, stages writes
// in a store.Buffer and applies them in MULTI/EXEC, retrying when another
// writer committed in between.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/medquiz/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultPrefix namespaces all keys written by the store.
const DefaultPrefix = "medquiz:"

const maxTxRetries = 8

// ErrConflict is returned when Update keeps losing optimistic-lock races.
var ErrConflict = errors.New("redisstore: too many concurrent updates")

// KV is a Redis-backed key-value store.
type KV struct {
	rdb    redis.UniversalClient
	prefix string
	log    zerolog.Logger
}

// Open parses url, connects and pings the server.
func Open(ctx context.Context, url, prefix string, log zerolog.Logger) (*KV, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return New(rdb, prefix, log), nil
}

// New wraps an existing client.
func New(rdb redis.UniversalClient, prefix string, log zerolog.Logger) *KV {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KV{rdb: rdb, prefix: prefix, log: log.With().Str("component", "redisstore").Logger()}
}

// Close closes the client.
func (k *KV) Close() error {
	return k.rdb.Close()
}

func (k *KV) key(key store.Key) string {
	return k.prefix + string(key)
}

func (k *KV) versionKey() string {
	return k.prefix + "__version"
}

func (k *KV) Get(ctx context.Context, key store.Key) ([]byte, error) {
	return k.get(ctx, k.rdb, key)
}

func (k *KV) get(ctx context.Context, c redis.Cmdable, key store.Key) ([]byte, error) {
	v, err := c.Get(ctx, k.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (k *KV) Set(ctx context.Context, key store.Key, value []byte) error {
	return k.apply(ctx, k.rdb, []store.Write{{Key: key, Value: value}})
}

func (k *KV) Delete(ctx context.Context, key store.Key) error {
	return k.apply(ctx, k.rdb, []store.Write{{Key: key, Deleted: true}})
}

// apply writes all changes and bumps the version in one MULTI/EXEC.
func (k *KV) apply(ctx context.Context, c redis.Cmdable, writes []store.Write) error {
	pipeline := func(pipe redis.Pipeliner) error {
		for _, w := range writes {
			if w.Deleted {
				pipe.Del(ctx, k.key(w.Key))
				continue
			}
			pipe.Set(ctx, k.key(w.Key), w.Value, 0)
		}
		pipe.Incr(ctx, k.versionKey())
		return nil
	}

	_, err := c.TxPipelined(ctx, pipeline)
	return err
}

func (k *KV) Update(ctx context.Context, fn func(tx store.KV) error) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := k.rdb.Watch(ctx, func(tx *redis.Tx) error {
			buf := store.NewBuffer(func(ctx context.Context, key store.Key) ([]byte, error) {
				return k.get(ctx, tx, key)
			})
			if err := fn(buf); err != nil {
				return err
			}
			writes := buf.Writes()
			if len(writes) == 0 {
				return nil
			}
			return k.apply(ctx, tx, writes)
		}, k.versionKey())

		if errors.Is(err, redis.TxFailedErr) {
			k.log.Debug().Int("attempt", attempt+1).Msg("optimistic lock lost, retrying")
			continue
		}
		return err
	}
	return ErrConflict
}
