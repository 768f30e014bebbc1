// Package pgstore implements store.Store on a PostgreSQL documents table.
//
// The first path segment is the collection, the second the document id and
// any further segments address a field inside the JSONB body. Every mutation
// sends the changed path on the store_changes channel; subscriptions re-read
// their path when a related path changes.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/pg"
	"github.com/GlebRadaev/stableflow/internal/store"
)

const (
	Channel       = "store_changes"
	relistenDelay = time.Second
)

var ErrPathDepth = errors.New("path must name at least a collection")

type Listener interface {
	Listen(ctx context.Context, channel string, onNotify func(payload string)) error
}

type Store struct {
	db        pg.Database
	txManager pg.TXManager
	listener  Listener

	mu       sync.Mutex
	watchers map[*store.Watcher]struct{}

	// serializes initial snapshots and notification fan-out
	dispatchMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(db pg.Database, txManager pg.TXManager, listener Listener) *Store {
	return &Store{
		db:        db,
		txManager: txManager,
		listener:  listener,
		watchers:  make(map[*store.Watcher]struct{}),
		ctx:       context.Background(),
		cancel:    func() {},
	}
}

// Start runs the notification listener until ctx is done or Close is called.
func (s *Store) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.listen(s.ctx)
	}()
}

func (s *Store) listen(ctx context.Context) {
	for {
		err := s.listener.Listen(ctx, Channel, func(path string) {
			s.dispatch(ctx, path)
		})
		if ctx.Err() != nil {
			return
		}
		zap.L().Error("store change listener failed", zap.Error(err))
		s.failAll(fmt.Errorf("change feed lost: %w", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(relistenDelay):
		}
	}
}

type location struct {
	collection string
	id         string
	field      []string
}

func parse(path string) (location, error) {
	parts := store.Split(path)
	if len(parts) == 0 {
		return location{}, fmt.Errorf("%q: %w", path, ErrPathDepth)
	}
	loc := location{collection: parts[0]}
	if len(parts) > 1 {
		loc.id = parts[1]
	}
	if len(parts) > 2 {
		loc.field = parts[2:]
	}
	return loc, nil
}

func (s *Store) Read(ctx context.Context, path string) (json.RawMessage, error) {
	loc, err := parse(path)
	if err != nil {
		return nil, err
	}
	switch {
	case loc.id == "":
		return s.readCollection(ctx, loc.collection)
	case loc.field == nil:
		query := `
        SELECT body
        FROM documents
        WHERE collection = $1 AND id = $2
    `
		var body []byte
		err := s.db.QueryRow(ctx, query, loc.collection, loc.id).Scan(&body)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		if err != nil {
			zap.L().Error("can't read document", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		return body, nil
	default:
		query := `
        SELECT body #> $3
        FROM documents
        WHERE collection = $1 AND id = $2
    `
		var body []byte
		err := s.db.QueryRow(ctx, query, loc.collection, loc.id, loc.field).Scan(&body)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && body == nil) {
			return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		if err != nil {
			zap.L().Error("can't read document field", zap.String("path", path), zap.Error(err))
			return nil, err
		}
		return body, nil
	}
}

func (s *Store) readCollection(ctx context.Context, collection string) (json.RawMessage, error) {
	query := `
        SELECT id, body
        FROM documents
        WHERE collection = $1
        ORDER BY id
    `
	rows, err := s.db.Query(ctx, query, collection)
	if err != nil {
		zap.L().Error("can't read collection", zap.String("collection", collection), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	docs := make(map[string]json.RawMessage)
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			zap.L().Error("can't scan document row", zap.Error(err))
			return nil, err
		}
		docs[id] = body
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s: %w", collection, store.ErrNotFound)
	}
	return json.Marshal(docs)
}

func (s *Store) notify(ctx context.Context, path string) error {
	_, err := s.db.Exec(ctx, `SELECT pg_notify($1, $2)`, Channel, path)
	return err
}

func (s *Store) Write(ctx context.Context, path string, value any) error {
	loc, err := parse(path)
	if err != nil {
		return err
	}
	if loc.id == "" {
		return fmt.Errorf("can't overwrite collection %s", loc.collection)
	}

	var body []byte
	if value != nil {
		if body, err = json.Marshal(value); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}

	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		switch {
		case value == nil && loc.field == nil:
			_, err = s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, loc.collection, loc.id)
		case value == nil:
			_, err = s.db.Exec(ctx, `
        UPDATE documents
        SET body = body #- $3, updated_at = now()
        WHERE collection = $1 AND id = $2
    `, loc.collection, loc.id, loc.field)
		case loc.field == nil:
			_, err = s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, body, updated_at)
        VALUES ($1, $2, $3, now())
        ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
    `, loc.collection, loc.id, body)
		default:
			_, err = s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, body, updated_at)
        VALUES ($1, $2, jsonb_set('{}'::jsonb, $3, $4, true), now())
        ON CONFLICT (collection, id) DO UPDATE SET body = jsonb_set(documents.body, $3, $4, true), updated_at = now()
    `, loc.collection, loc.id, loc.field, body)
		}
		if err != nil {
			zap.L().Error("can't write document", zap.String("path", path), zap.Error(err))
			return err
		}
		return s.notify(ctx, path)
	})
}

// split separates fields to set from fields to remove; nil values mean removal.
func split(fields map[string]any) ([]byte, []string, error) {
	set := make(map[string]any, len(fields))
	remove := make([]string, 0)
	for k, v := range fields {
		if v == nil {
			remove = append(remove, k)
			continue
		}
		set[k] = v
	}
	body, err := json.Marshal(set)
	return body, remove, err
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	loc, err := parse(path)
	if err != nil {
		return err
	}
	if loc.id == "" || loc.field != nil {
		return fmt.Errorf("update needs a document path, got %s", path)
	}
	body, remove, err := split(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		tag, err := s.db.Exec(ctx, `
        UPDATE documents
        SET body = (body || $3::jsonb) - $4::text[], updated_at = now()
        WHERE collection = $1 AND id = $2
    `, loc.collection, loc.id, body, remove)
		if err != nil {
			zap.L().Error("can't update document", zap.String("path", path), zap.Error(err))
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", path, store.ErrNotFound)
		}
		return s.notify(ctx, path)
	})
}

// Transact locks the document row for the duration of fn.
func (s *Store) Transact(ctx context.Context, path string, fn store.TxFn) error {
	loc, err := parse(path)
	if err != nil {
		return err
	}
	if loc.id == "" || loc.field != nil {
		return fmt.Errorf("transact needs a document path, got %s", path)
	}

	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		query := `
        SELECT body
        FROM documents
        WHERE collection = $1 AND id = $2
        FOR UPDATE
    `
		current := json.RawMessage("null")
		exists := true
		var body []byte
		err := s.db.QueryRow(ctx, query, loc.collection, loc.id).Scan(&body)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			exists = false
		case err != nil:
			zap.L().Error("can't lock document", zap.String("path", path), zap.Error(err))
			return err
		default:
			current = body
		}

		fields, err := fn(current)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		patch, remove, err := split(fields)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}

		if exists {
			_, err = s.db.Exec(ctx, `
        UPDATE documents
        SET body = (body || $3::jsonb) - $4::text[], updated_at = now()
        WHERE collection = $1 AND id = $2
    `, loc.collection, loc.id, patch, remove)
		} else {
			_, err = s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, body, updated_at)
        VALUES ($1, $2, $3, now())
    `, loc.collection, loc.id, patch)
		}
		if err != nil {
			zap.L().Error("can't apply transaction", zap.String("path", path), zap.Error(err))
			return err
		}
		return s.notify(ctx, path)
	})
}

// snapshot reads path for delivery; a missing path is JSON null.
func (s *Store) snapshot(ctx context.Context, path string) (json.RawMessage, error) {
	raw, err := s.Read(ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return json.RawMessage("null"), nil
	}
	return raw, err
}

func (s *Store) Subscribe(ctx context.Context, path string, onChange func(json.RawMessage), onError func(error)) (store.Subscription, error) {
	if _, err := parse(path); err != nil {
		return nil, err
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	var w *store.Watcher
	w = store.NewWatcher(path, onChange, onError, func() {
		s.mu.Lock()
		delete(s.watchers, w)
		s.mu.Unlock()
	})
	s.mu.Lock()
	s.watchers[w] = struct{}{}
	s.mu.Unlock()

	raw, err := s.snapshot(ctx, path)
	if err != nil {
		w.Stop()
		return nil, err
	}
	w.Push(raw)

	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.Done():
		}
	}()
	return w, nil
}

func (s *Store) related(path string) []*store.Watcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.Watcher, 0, len(s.watchers))
	for w := range s.watchers {
		if store.Related(w.Path(), path) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Store) dispatch(ctx context.Context, path string) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	for _, w := range s.related(path) {
		raw, err := s.snapshot(ctx, w.Path())
		if err != nil {
			zap.L().Error("can't refresh subscription", zap.String("path", w.Path()), zap.Error(err))
			w.Fail(err)
			continue
		}
		w.Push(raw)
	}
}

func (s *Store) failAll(err error) {
	for _, w := range s.related("") {
		w.Fail(err)
	}
}

func (s *Store) ReserveID(_ context.Context, _ string) (string, error) {
	return store.NewID()
}

// Close stops the listener and every open subscription.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	open := make([]*store.Watcher, 0, len(s.watchers))
	for w := range s.watchers {
		open = append(open, w)
	}
	s.mu.Unlock()

	for _, w := range open {
		w.Stop()
	}
}
