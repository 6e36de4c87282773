package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const redisUpdateAttempts = 10

// redisBackend stores each record as a JSON string and keeps a sorted set per
// kind to remember insertion order.
type redisBackend struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis builds a store on a redis client. Keys are namespaced by prefix.
func NewRedis(rdb *redis.Client, prefix string) *Store {
	return newStore("redis", &redisBackend{rdb: rdb, prefix: prefix})
}

func (r *redisBackend) key(kind, id string) string { return r.prefix + ":" + kind + ":" + id }
func (r *redisBackend) orderKey(kind string) string { return r.prefix + ":" + kind + ":_order" }
func (r *redisBackend) seqKey(kind string) string { return r.prefix + ":" + kind + ":_seq" }

func (r *redisBackend) get(ctx context.Context, kind, id string) ([]byte, bool, error) {
	doc, err := r.rdb.Get(ctx, r.key(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s/%s: %w", kind, id, err)
	}
	return doc, true, nil
}

func (r *redisBackend) write(ctx context.Context, pipe redis.Pipeliner, kind, id string, doc []byte, seq int64) {
	pipe.Set(ctx, r.key(kind, id), doc, 0)
	pipe.ZAddNX(ctx, r.orderKey(kind), &redis.Z{Score: float64(seq), Member: id})
}

func (r *redisBackend) put(ctx context.Context, kind, id string, doc []byte) error {
	seq, err := r.rdb.Incr(ctx, r.seqKey(kind)).Result()
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, id, err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		r.write(ctx, pipe, kind, id, doc, seq)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, id, err)
	}
	return nil
}

func (r *redisBackend) remove(ctx context.Context, kind, id string) (bool, error) {
	var del *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(kind, id))
		pipe.ZRem(ctx, r.orderKey(kind), id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", kind, id, err)
	}
	return del.Val() > 0, nil
}

func (r *redisBackend) list(ctx context.Context, kind string, q Query) ([][]byte, error) {
	ids, err := r.rdb.ZRange(ctx, r.orderKey(kind), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	if len(ids) == 0 {
		return [][]byte{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(kind, id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	docs := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			docs = append(docs, []byte(s))
		}
	}
	return q.apply(docs), nil
}

func (r *redisBackend) update(ctx context.Context, kind, id string, fn func([]byte, bool) ([]byte, error)) error {
	key := r.key(kind, id)
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists = false
		} else if err != nil {
			return err
		}
		next, err := fn(cur, exists)
		if err != nil {
			return err
		}
		var seq int64
		if !exists {
			if seq, err = tx.Incr(ctx, r.seqKey(kind)).Result(); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if exists {
				pipe.Set(ctx, key, next, 0)
				return nil
			}
			r.write(ctx, pipe, kind, id, next, seq)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateAttempts; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (r *redisBackend) ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *redisBackend) close() error { return r.rdb.Close() }
