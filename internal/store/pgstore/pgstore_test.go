package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlebRadaev/stableflow/internal/pg"
	"github.com/GlebRadaev/stableflow/internal/store"
)

type fakeListener struct {
	notify chan string
	fail   chan error
}

func newFakeListener() *fakeListener {
	return &fakeListener{notify: make(chan string, 8), fail: make(chan error, 1)}
}

func (f *fakeListener) Listen(ctx context.Context, _ string, onNotify func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-f.fail:
			return err
		case p := <-f.notify:
			onNotify(p)
		}
	}
}

func NewMock(t *testing.T) (*Store, pgxmock.PgxPoolIface, *fakeListener) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	l := newFakeListener()
	return New(pg.New(mock), pg.NewTXManager(mock), l), mock, l
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

func TestStore_Read(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		prepareMock func(mock pgxmock.PgxPoolIface)
		want        string
		wantErr     error
	}{
		{
			name: "document",
			path: "users/1",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT body FROM documents").
					WithArgs("users", "1").
					WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"uid":"1"}`)))
			},
			want: `{"uid":"1"}`,
		},
		{
			name: "missing document",
			path: "users/2",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT body FROM documents").
					WithArgs("users", "2").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: store.ErrNotFound,
		},
		{
			name: "field",
			path: "users/1/balance",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT body #> \$3`).
					WithArgs("users", "1", []string{"balance"}).
					WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`"12.5"`)))
			},
			want: `"12.5"`,
		},
		{
			name: "missing field",
			path: "users/1/wallet",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT body #> \$3`).
					WithArgs("users", "1", []string{"wallet"}).
					WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(nil)))
			},
			wantErr: store.ErrNotFound,
		},
		{
			name: "collection",
			path: "expenses",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, body FROM documents").
					WithArgs("expenses").
					WillReturnRows(pgxmock.NewRows([]string{"id", "body"}).
						AddRow("a", []byte(`{"n":1}`)).
						AddRow("b", []byte(`{"n":2}`)))
			},
			want: `{"a":{"n":1},"b":{"n":2}}`,
		},
		{
			name: "empty collection",
			path: "expenses",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery("SELECT id, body FROM documents").
					WithArgs("expenses").
					WillReturnRows(pgxmock.NewRows([]string{"id", "body"}))
			},
			wantErr: store.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, _ := NewMock(t)
			tt.prepareMock(mock)

			raw, err := s.Read(context.Background(), tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(raw))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Write(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		value       any
		prepareMock func(mock pgxmock.PgxPoolIface)
		wantErr     bool
	}{
		{
			name:  "upsert document",
			path:  "users/1",
			value: map[string]any{"uid": "1"},
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO documents").
					WithArgs("users", "1", []byte(`{"uid":"1"}`)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("SELECT pg_notify").
					WithArgs(Channel, "users/1").
					WillReturnResult(pgxmock.NewResult("SELECT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name:  "set field",
			path:  "users/1/balance",
			value: "3.5",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("jsonb_set").
					WithArgs("users", "1", []string{"balance"}, []byte(`"3.5"`)).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectExec("SELECT pg_notify").
					WithArgs(Channel, "users/1/balance").
					WillReturnResult(pgxmock.NewResult("SELECT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "delete document",
			path: "users/1",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM documents").
					WithArgs("users", "1").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
				mock.ExpectExec("SELECT pg_notify").
					WithArgs(Channel, "users/1").
					WillReturnResult(pgxmock.NewResult("SELECT", 1))
				mock.ExpectCommit()
			},
		},
		{
			name:  "database error rolls back",
			path:  "users/1",
			value: map[string]any{"uid": "1"},
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO documents").
					WithArgs("users", "1", []byte(`{"uid":"1"}`)).
					WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name:        "collection path",
			path:        "users",
			value:       map[string]any{},
			prepareMock: func(mock pgxmock.PgxPoolIface) {},
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, _ := NewMock(t)
			tt.prepareMock(mock)

			err := s.Write(context.Background(), tt.path, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Update(t *testing.T) {
	t.Run("merges and removes nil fields", func(t *testing.T) {
		s, mock, _ := NewMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents").
			WithArgs("expenses", "x", []byte(`{"status":"APPROVED"}`), []string{"rejectionReason"}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("SELECT pg_notify").
			WithArgs(Channel, "expenses/x").
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectCommit()

		err := s.Update(context.Background(), "expenses/x", map[string]any{"status": "APPROVED", "rejectionReason": nil})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document", func(t *testing.T) {
		s, mock, _ := NewMock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE documents").
			WithArgs("expenses", "x", []byte(`{"status":"PAID"}`), []string{}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := s.Update(context.Background(), "expenses/x", map[string]any{"status": "PAID"})
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Transact(t *testing.T) {
	t.Run("locks and merges", func(t *testing.T) {
		s, mock, _ := NewMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("expenses", "x").
			WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"status":"PENDING"}`)))
		mock.ExpectExec("UPDATE documents").
			WithArgs("expenses", "x", []byte(`{"status":"CANCELLED"}`), []string{}).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("SELECT pg_notify").
			WithArgs(Channel, "expenses/x").
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectCommit()

		err := s.Transact(context.Background(), "expenses/x", func(cur json.RawMessage) (map[string]any, error) {
			assert.JSONEq(t, `{"status":"PENDING"}`, string(cur))
			return map[string]any{"status": "CANCELLED"}, nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("abort rolls back", func(t *testing.T) {
		s, mock, _ := NewMock(t)
		boom := errors.New("illegal transition")
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("expenses", "x").
			WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"status":"PAID"}`)))
		mock.ExpectRollback()

		err := s.Transact(context.Background(), "expenses/x", func(json.RawMessage) (map[string]any, error) {
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document sees null", func(t *testing.T) {
		s, mock, _ := NewMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("expenses", "y").
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectCommit()

		err := s.Transact(context.Background(), "expenses/y", func(cur json.RawMessage) (map[string]any, error) {
			assert.True(t, store.IsNull(cur))
			return nil, nil
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_SubscribeDispatch(t *testing.T) {
	s, mock, l := NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock.ExpectQuery("SELECT body FROM documents").
		WithArgs("users", "1").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT body FROM documents").
		WithArgs("users", "1").
		WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{"balance":"5"}`)))

	s.Start(ctx)
	defer s.Close()

	ch := make(chan string, 8)
	sub, err := s.Subscribe(ctx, "users/1", func(raw json.RawMessage) { ch <- string(raw) }, nil)
	require.NoError(t, err)

	assert.Equal(t, "null", next(t, ch))

	l.notify <- "expenses/a"
	l.notify <- "users/1/balance"
	assert.JSONEq(t, `{"balance":"5"}`, next(t, ch))

	sub.Stop()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListenerFailureFailsSubscriptions(t *testing.T) {
	s, mock, l := NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock.ExpectQuery("SELECT body FROM documents").
		WithArgs("users", "1").
		WillReturnRows(pgxmock.NewRows([]string{"body"}).AddRow([]byte(`{}`)))

	s.Start(ctx)
	defer s.Close()

	errs := make(chan error, 1)
	sub, err := s.Subscribe(ctx, "users/1", func(json.RawMessage) {}, func(err error) { errs <- err })
	require.NoError(t, err)

	l.fail <- errors.New("connection reset")

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "connection reset")
	case <-time.After(2 * time.Second):
		t.Fatal("subscription error not delivered")
	}
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not terminated")
	}
}
