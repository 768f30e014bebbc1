// Package observable holds a value and pushes every change to its subscribers.
package observable

import "sync"

type Value[T any] struct {
	mu     sync.RWMutex
	pubMu  sync.Mutex
	cur    T
	nextID int
	subs   map[int]func(T)
}

func New[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[int]func(T))}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

// Set stores val and delivers it to every subscriber before returning.
// Concurrent Set calls are delivered in the order they were stored.
func (v *Value[T]) Set(val T) {
	v.pubMu.Lock()
	defer v.pubMu.Unlock()

	v.mu.Lock()
	v.cur = val
	subs := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(val)
	}
}

// Subscribe calls fn with the current value, then with every later value.
// fn must not call Set on the same Value.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.pubMu.Lock()
	defer v.pubMu.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	cur := v.cur
	v.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}
