// Package memstore is an in-process store.Store backed by a JSON tree.
package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/store"
)

type MemStore struct {
	mu       sync.RWMutex
	root     map[string]any
	watchers map[*store.Watcher]struct{}
}

func New() *MemStore {
	return &MemStore{
		root:     make(map[string]any),
		watchers: make(map[*store.Watcher]struct{}),
	}
}

// normalize turns v into the decoded-JSON form kept in the tree, so stored
// values never alias caller memory.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// lookup must be called with m.mu held.
func (m *MemStore) lookup(parts []string) (any, bool) {
	var node any = m.root
	for _, p := range parts {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = obj[p]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// snapshot must be called with m.mu held. Absent paths encode as null.
func (m *MemStore) snapshot(path string) json.RawMessage {
	node, ok := m.lookup(store.Split(path))
	if !ok {
		return json.RawMessage("null")
	}
	raw, err := json.Marshal(node)
	if err != nil {
		zap.L().Error("can't encode snapshot", zap.String("path", path), zap.Error(err))
		return json.RawMessage("null")
	}
	return raw
}

// set must be called with m.mu locked for writing.
func (m *MemStore) set(parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("can't write the store root")
	}
	node := m.root
	for i, p := range parts[:len(parts)-1] {
		next, ok := node[p]
		if !ok || next == nil {
			if value == nil {
				return nil
			}
			child := make(map[string]any)
			node[p] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("path %s is not an object", store.Join(parts[:i+1]...))
		}
		node = child
	}
	last := parts[len(parts)-1]
	if value == nil {
		delete(node, last)
		return nil
	}
	node[last] = value
	return nil
}

// notify must be called with m.mu locked for writing, which keeps snapshot
// order identical to write order.
func (m *MemStore) notify(path string) {
	for w := range m.watchers {
		if store.Related(w.Path(), path) {
			w.Push(m.snapshot(w.Path()))
		}
	}
}

func (m *MemStore) Read(_ context.Context, path string) (json.RawMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.lookup(store.Split(path))
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}
	return json.Marshal(node)
}

func (m *MemStore) Write(_ context.Context, path string, value any) error {
	var normalized any
	if value != nil {
		var err error
		if normalized, err = normalize(value); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.set(store.Split(path), normalized); err != nil {
		return err
	}
	m.notify(path)
	return nil
}

func (m *MemStore) Update(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.merge(path, fields, false); err != nil {
		return err
	}
	m.notify(path)
	return nil
}

// merge must be called with m.mu locked for writing.
func (m *MemStore) merge(path string, fields map[string]any, create bool) error {
	parts := store.Split(path)
	node, ok := m.lookup(parts)
	if !ok || node == nil {
		if !create {
			return fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		node = make(map[string]any)
		if err := m.set(parts, node); err != nil {
			return err
		}
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return fmt.Errorf("path %s is not an object", path)
	}

	for k, v := range fields {
		if v == nil {
			delete(obj, k)
			continue
		}
		nv, err := normalize(v)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", path, k, err)
		}
		obj[k] = nv
	}
	return nil
}

func (m *MemStore) Transact(_ context.Context, path string, fn store.TxFn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fields, err := fn(m.snapshot(path))
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	if err := m.merge(path, fields, true); err != nil {
		return err
	}
	m.notify(path)
	return nil
}

// Subscribe emits the current snapshot first. ctx cancellation stops the subscription.
func (m *MemStore) Subscribe(ctx context.Context, path string, onChange func(json.RawMessage), onError func(error)) (store.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var w *store.Watcher
	w = store.NewWatcher(path, onChange, onError, func() {
		m.mu.Lock()
		delete(m.watchers, w)
		m.mu.Unlock()
	})

	m.mu.Lock()
	m.watchers[w] = struct{}{}
	w.Push(m.snapshot(path))
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.Done():
		}
	}()
	return w, nil
}

func (m *MemStore) ReserveID(_ context.Context, _ string) (string, error) {
	return store.NewID()
}

// Close stops every open subscription.
func (m *MemStore) Close() {
	m.mu.RLock()
	open := make([]*store.Watcher, 0, len(m.watchers))
	for w := range m.watchers {
		open = append(open, w)
	}
	m.mu.RUnlock()

	for _, w := range open {
		w.Stop()
	}
}
