package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Listener holds one pooled connection in LISTEN mode.
type Listener struct {
	pool *pgxpool.Pool
}

func NewListener(pool *pgxpool.Pool) *Listener {
	return &Listener{pool: pool}
}

// Listen blocks, calling onNotify for every notification on channel, until
// ctx is done or the connection fails.
func (l *Listener) Listen(ctx context.Context, channel string, onNotify func(payload string)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", channel, err)
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), "UNLISTEN *"); err != nil {
			zap.L().Debug("unlisten failed", zap.Error(err))
		}
	}()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		onNotify(n.Payload)
	}
}
