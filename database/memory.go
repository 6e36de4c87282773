package database

import (
	"context"
	"sync"
)

type memoryKind struct {
	order []string
	docs  map[string][]byte
}

// memoryBackend keeps records in process memory. Documents are stored as
// encoded bytes so callers never share mutable state with the store.
type memoryBackend struct {
	mu    sync.RWMutex
	kinds map[string]*memoryKind
}

// NewMemory returns a volatile store.
func NewMemory() *Store {
	return newStore("memory", &memoryBackend{kinds: make(map[string]*memoryKind)})
}

func (m *memoryBackend) kind(name string) *memoryKind {
	k, ok := m.kinds[name]
	if !ok {
		k = &memoryKind{docs: make(map[string][]byte)}
		m.kinds[name] = k
	}
	return k
}

func (m *memoryBackend) get(_ context.Context, kind, id string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.kinds[kind]
	if !ok {
		return nil, false, nil
	}
	doc, ok := k.docs[id]
	return doc, ok, nil
}

func (m *memoryBackend) putLocked(kind, id string, doc []byte) {
	k := m.kind(kind)
	if _, exists := k.docs[id]; !exists {
		k.order = append(k.order, id)
	}
	k.docs[id] = doc
}

func (m *memoryBackend) put(_ context.Context, kind, id string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(kind, id, doc)
	return nil
}

func (m *memoryBackend) remove(_ context.Context, kind, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.kinds[kind]
	if !ok {
		return false, nil
	}
	if _, ok := k.docs[id]; !ok {
		return false, nil
	}
	delete(k.docs, id)
	for i, key := range k.order {
		if key == id {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *memoryBackend) list(_ context.Context, kind string, q Query) ([][]byte, error) {
	m.mu.RLock()
	k, ok := m.kinds[kind]
	if !ok {
		m.mu.RUnlock()
		return [][]byte{}, nil
	}
	docs := make([][]byte, 0, len(k.order))
	for _, id := range k.order {
		docs = append(docs, k.docs[id])
	}
	m.mu.RUnlock()
	return q.apply(docs), nil
}

func (m *memoryBackend) update(_ context.Context, kind, id string, fn func([]byte, bool) ([]byte, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur []byte
	exists := false
	if k, ok := m.kinds[kind]; ok {
		cur, exists = k.docs[id]
	}
	next, err := fn(cur, exists)
	if err != nil {
		return err
	}
	m.putLocked(kind, id, next)
	return nil
}

func (m *memoryBackend) ping(context.Context) error { return nil }

func (m *memoryBackend) close() error { return nil }
