package store

import (
	"encoding/json"
	"sync"
	"sync/atomic"
)

type event struct {
	value json.RawMessage
	err   error
}

// Watcher is the Subscription shared by the store backends. Backends enqueue
// snapshots with Push while holding their own lock, which fixes the order;
// a dedicated goroutine delivers them one at a time.
type Watcher struct {
	path     string
	onChange func(json.RawMessage)
	onError  func(error)
	detach   func()

	mu    sync.Mutex
	queue []event
	wake  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
	stopped   atomic.Bool
	deliverMu sync.Mutex
}

// NewWatcher starts the delivery goroutine. detach is called once when the
// watcher terminates so the backend can forget it.
func NewWatcher(path string, onChange func(json.RawMessage), onError func(error), detach func()) *Watcher {
	w := &Watcher{
		path:     path,
		onChange: onChange,
		onError:  onError,
		detach:   detach,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) Push(value json.RawMessage) {
	w.enqueue(event{value: value})
}

// Fail delivers err to onError and then terminates the watcher.
func (w *Watcher) Fail(err error) {
	w.enqueue(event{err: err})
}

func (w *Watcher) enqueue(ev event) {
	select {
	case <-w.done:
		return
	default:
	}
	w.mu.Lock()
	w.queue = append(w.queue, ev)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Watcher) Stop() {
	w.stopped.Store(true)
	w.terminate()
	// wait out a callback that is already running
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()
}

func (w *Watcher) terminate() {
	w.closeOnce.Do(func() {
		close(w.done)
		if w.detach != nil {
			w.detach()
		}
	})
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
		}

		for {
			w.mu.Lock()
			if len(w.queue) == 0 {
				w.mu.Unlock()
				break
			}
			ev := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()

			if !w.deliver(ev) {
				return
			}
		}
	}
}

func (w *Watcher) deliver(ev event) bool {
	w.deliverMu.Lock()
	defer w.deliverMu.Unlock()

	if w.stopped.Load() {
		return false
	}
	if ev.err != nil {
		w.stopped.Store(true)
		if w.onError != nil {
			w.onError(ev.err)
		}
		w.terminate()
		return false
	}
	if w.onChange != nil {
		w.onChange(ev.value)
	}
	return true
}
