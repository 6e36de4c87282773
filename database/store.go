// Package database holds the record store behind every resource handler.
// Records are JSON documents keyed by an opaque id and grouped by kind; the
// volatile, SQL and redis drivers all share that shape.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"activity-points/models"
)

const (
	KindUsers      = "users"
	KindActivities = "activities"
	KindLedgers    = "ledgers"
)

// ErrConflict is returned when an optimistic update keeps losing to concurrent
// writers.
var ErrConflict = errors.New("database: concurrent update conflict")

// UpdateFunc receives the current record (zero value and false when absent)
// and returns the record to store. Returning an error aborts the update
// without writing.
type UpdateFunc[T any] func(current T, exists bool) (T, error)

type Collection[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Set(ctx context.Context, id string, v T) (T, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, q Query) ([]T, error)
	// Update performs an atomic read-modify-write of one record.
	Update(ctx context.Context, id string, fn UpdateFunc[T]) (T, error)
}

// backend stores raw JSON documents.
type backend interface {
	get(ctx context.Context, kind, id string) ([]byte, bool, error)
	put(ctx context.Context, kind, id string, doc []byte) error
	remove(ctx context.Context, kind, id string) (bool, error)
	list(ctx context.Context, kind string, q Query) ([][]byte, error)
	update(ctx context.Context, kind, id string, fn func(cur []byte, exists bool) ([]byte, error)) error
	ping(ctx context.Context) error
	close() error
}

type Store struct {
	Users      Collection[models.User]
	Activities Collection[models.Activity]
	Ledgers    Collection[models.Ledger]

	Driver string
	b      backend
}

func newStore(driver string, b backend) *Store {
	return &Store{
		Users:      &collection[models.User]{kind: KindUsers, b: b},
		Activities: &collection[models.Activity]{kind: KindActivities, b: b},
		Ledgers:    &collection[models.Ledger]{kind: KindLedgers, b: b},
		Driver:     driver,
		b:          b,
	}
}

func (s *Store) Ping(ctx context.Context) error { return s.b.ping(ctx) }

func (s *Store) Close() error { return s.b.close() }

type collection[T any] struct {
	kind string
	b    backend
}

func (c *collection[T]) decode(doc []byte) (T, error) {
	var v T
	if err := json.Unmarshal(doc, &v); err != nil {
		return v, fmt.Errorf("decode %s record: %w", c.kind, err)
	}
	return v, nil
}

func (c *collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	doc, ok, err := c.b.get(ctx, c.kind, id)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := c.decode(doc)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (c *collection[T]) Set(ctx context.Context, id string, v T) (T, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("encode %s record: %w", c.kind, err)
	}
	if err := c.b.put(ctx, c.kind, id, doc); err != nil {
		return v, err
	}
	return v, nil
}

func (c *collection[T]) Delete(ctx context.Context, id string) (bool, error) {
	return c.b.remove(ctx, c.kind, id)
}

func (c *collection[T]) List(ctx context.Context, q Query) ([]T, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	docs, err := c.b.list(ctx, c.kind, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *collection[T]) Update(ctx context.Context, id string, fn UpdateFunc[T]) (T, error) {
	var result T
	err := c.b.update(ctx, c.kind, id, func(cur []byte, exists bool) ([]byte, error) {
		var current T
		if exists {
			v, err := c.decode(cur)
			if err != nil {
				return nil, err
			}
			current = v
		}
		next, err := fn(current, exists)
		if err != nil {
			return nil, err
		}
		result = next
		return json.Marshal(next)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
