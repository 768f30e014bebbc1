// Package store defines the remote document store the synchronization layer talks to.
//
// Paths are slash separated ("users/42", "expenses/abc/status"). Values are JSON.
// Subscriptions deliver full snapshots of the watched path, serially and in order.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/GlebRadaev/stableflow/internal/domain"
)

var ErrNotFound = domain.ErrNotFound

// TxFn receives the current value at a path (JSON null when absent) and returns
// the fields to merge into it. Returning an error aborts without writing.
type TxFn func(current json.RawMessage) (map[string]any, error)

//go:generate mockgen -source=store.go -destination=mock_store.go -package=store
type Store interface {
	Read(ctx context.Context, path string) (json.RawMessage, error)
	// Write replaces the value at path. A nil value removes it.
	Write(ctx context.Context, path string, value any) error
	// Update merges fields into the object at path; the object must exist.
	Update(ctx context.Context, path string, fields map[string]any) error
	Transact(ctx context.Context, path string, fn TxFn) error
	Subscribe(ctx context.Context, path string, onChange func(json.RawMessage), onError func(error)) (Subscription, error)
	ReserveID(ctx context.Context, collection string) (string, error)
}

type Subscription interface {
	// Stop detaches the listener. No callback runs after Stop returns.
	// Stop must not be called from inside the subscription's own callback.
	Stop()
	Done() <-chan struct{}
}

// Split returns the non-empty segments of path.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func Join(parts ...string) string {
	return strings.Join(parts, "/")
}

// Related reports whether a change at one path can alter the value at the other,
// i.e. one is an ancestor of (or equal to) the other.
func Related(a, b string) bool {
	pa, pb := Split(a), Split(b)
	n := len(pa)
	if len(pb) < n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		if pa[i] != pb[i] {
			return false
		}
	}
	return true
}

// NewID returns a time-ordered unique id suitable for a collection key.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsNull reports whether raw is empty or JSON null.
func IsNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
