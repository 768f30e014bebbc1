package reconcile

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/stableflow/internal/config"
)

// Registry holds one Coordinator per account and refreshes the ones with a
// wallet on the configured schedule.
type Registry struct {
	chain      ChainClient
	writer     BalanceWriter
	schedule   string
	workerPool WorkerPoolI
	cron       *cron.Cron

	mu           sync.Mutex
	coordinators map[string]*Coordinator

	refreshing sync.Map
}

func NewRegistry(cfg *config.Config, chain ChainClient, writer BalanceWriter) *Registry {
	return &Registry{
		chain:        chain,
		writer:       writer,
		schedule:     cfg.RefreshSchedule,
		workerPool:   NewWorkerPool(cfg.RefreshWorkers),
		cron:         cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		coordinators: make(map[string]*Coordinator),
	}
}

// Get returns the account's coordinator, creating it on first use.
func (r *Registry) Get(accountID string) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coordinators[accountID]
	if !ok {
		c = NewCoordinator(accountID, r.chain, r.writer)
		r.coordinators[accountID] = c
	}
	return c
}

func (r *Registry) Lookup(accountID string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coordinators[accountID]
	return c, ok
}

// Remove clears the account's coordinator and forgets it.
func (r *Registry) Remove(accountID string) {
	r.mu.Lock()
	c, ok := r.coordinators[accountID]
	delete(r.coordinators, accountID)
	r.mu.Unlock()

	if ok {
		c.Clear()
	}
}

func (r *Registry) snapshot() []*Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Coordinator, 0, len(r.coordinators))
	for _, c := range r.coordinators {
		out = append(out, c)
	}
	return out
}

// Start schedules RefreshAll. The schedule stops when ctx is done.
func (r *Registry) Start(ctx context.Context) error {
	if _, err := r.cron.AddFunc(r.schedule, func() { r.RefreshAll(ctx) }); err != nil {
		return err
	}
	r.cron.Start()
	zap.L().Info("Balance reconciliation scheduled", zap.String("schedule", r.schedule))

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()
	return nil
}

// RefreshAll refreshes every coordinator with an active wallet through the
// worker pool. Accounts still refreshing from a previous run are skipped.
func (r *Registry) RefreshAll(ctx context.Context) {
	var g errgroup.Group
	for _, c := range r.snapshot() {
		c := c
		if c.Address() == "" {
			continue
		}
		if _, loaded := r.refreshing.LoadOrStore(c.AccountID(), struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := r.workerPool.AddTask(ctx, func() error {
				defer r.refreshing.Delete(c.AccountID())
				return c.RefreshBalances(ctx)
			})
			if err != nil {
				r.refreshing.Delete(c.AccountID())
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error scheduling balance refresh", zap.Error(err))
	}
}

func (r *Registry) Close() {
	<-r.cron.Stop().Done()
	r.workerPool.Close()
}
