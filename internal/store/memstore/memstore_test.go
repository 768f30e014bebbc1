package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/stableflow/internal/store"
)

type doc struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func collect(t *testing.T) (func(json.RawMessage), <-chan string) {
	t.Helper()
	ch := make(chan string, 64)
	return func(raw json.RawMessage) { ch <- string(raw) }, ch
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
		return ""
	}
}

func TestMemStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.Read(ctx, "users/1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.Write(ctx, "users/1", doc{Name: "ann", Amount: "1.50"}))
	raw, err := m.Read(ctx, "users/1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"ann","amount":"1.50"}`, string(raw))

	require.NoError(t, m.Write(ctx, "users/1/amount", "2"))
	raw, err = m.Read(ctx, "users/1/amount")
	require.NoError(t, err)
	assert.JSONEq(t, `"2"`, string(raw))

	raw, err = m.Read(ctx, "users")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"name":"ann","amount":"2"}}`, string(raw))

	require.NoError(t, m.Write(ctx, "users/1", nil))
	_, err = m.Read(ctx, "users/1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemStore_WriteThroughScalarFails(t *testing.T) {
	ctx := context.Background()
	m := New()
	require.NoError(t, m.Write(ctx, "users/1", "scalar"))

	assert.Error(t, m.Write(ctx, "users/1/balance", 5))
}

func TestMemStore_Update(t *testing.T) {
	ctx := context.Background()
	m := New()

	err := m.Update(ctx, "expenses/x", map[string]any{"status": "PAID"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.Write(ctx, "expenses/x", map[string]any{"status": "PENDING", "title": "Taxi"}))
	require.NoError(t, m.Update(ctx, "expenses/x", map[string]any{"status": "APPROVED", "approvedBy": "mgr"}))

	raw, err := m.Read(ctx, "expenses/x")
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"APPROVED","title":"Taxi","approvedBy":"mgr"}`, string(raw))
}

func TestMemStore_Transact(t *testing.T) {
	ctx := context.Background()
	m := New()
	require.NoError(t, m.Write(ctx, "expenses/x", map[string]any{"status": "PENDING"}))

	err := m.Transact(ctx, "expenses/x", func(cur json.RawMessage) (map[string]any, error) {
		assert.JSONEq(t, `{"status":"PENDING"}`, string(cur))
		return map[string]any{"status": "CANCELLED"}, nil
	})
	require.NoError(t, err)

	boom := errors.New("rejected")
	err = m.Transact(ctx, "expenses/x", func(json.RawMessage) (map[string]any, error) {
		return map[string]any{"status": "PAID"}, boom
	})
	assert.ErrorIs(t, err, boom)

	raw, _ := m.Read(ctx, "expenses/x/status")
	assert.JSONEq(t, `"CANCELLED"`, string(raw))

	err = m.Transact(ctx, "expenses/missing", func(cur json.RawMessage) (map[string]any, error) {
		assert.True(t, store.IsNull(cur))
		return nil, nil
	})
	assert.NoError(t, err)
}

func TestMemStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	m := New()

	onChange, ch := collect(t)
	sub, err := m.Subscribe(ctx, "expenses", onChange, nil)
	require.NoError(t, err)

	assert.Equal(t, "null", next(t, ch))

	require.NoError(t, m.Write(ctx, "expenses/a", map[string]any{"n": 1}))
	assert.JSONEq(t, `{"a":{"n":1}}`, next(t, ch))

	require.NoError(t, m.Update(ctx, "expenses/a", map[string]any{"n": 2}))
	assert.JSONEq(t, `{"a":{"n":2}}`, next(t, ch))

	// unrelated paths do not trigger the collection watcher
	require.NoError(t, m.Write(ctx, "users/1", map[string]any{"uid": "1"}))

	sub.Stop()
	sub.Stop()
	require.NoError(t, m.Write(ctx, "expenses/b", map[string]any{"n": 3}))

	select {
	case s := <-ch:
		t.Fatalf("unexpected snapshot after stop: %s", s)
	case <-time.After(50 * time.Millisecond):
	}

	m.mu.RLock()
	assert.Empty(t, m.watchers)
	m.mu.RUnlock()
}

func TestMemStore_SubscribeContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := New()

	onChange, ch := collect(t)
	sub, err := m.Subscribe(ctx, "users/1", onChange, nil)
	require.NoError(t, err)
	next(t, ch)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not stopped by context")
	}
}

func TestMemStore_Close(t *testing.T) {
	m := New()
	sub, err := m.Subscribe(context.Background(), "users/1", func(json.RawMessage) {}, nil)
	require.NoError(t, err)

	m.Close()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not stopped by Close")
	}
}

func TestMemStore_ReserveID(t *testing.T) {
	m := New()
	a, err := m.ReserveID(context.Background(), "expenses")
	require.NoError(t, err)
	b, err := m.ReserveID(context.Background(), "expenses")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
