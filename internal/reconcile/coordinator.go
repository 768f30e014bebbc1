// Package reconcile keeps each account's published wallet balances in line
// with the chain and writes the token balance back to the account ledger.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/pkg/observable"
	"github.com/GlebRadaev/stableflow/pkg/validate"
)

//go:generate mockgen -source=coordinator.go -destination=mock_coordinator.go -package=reconcile
type ChainClient interface {
	GetCombinedBalance(ctx context.Context, address string) (domain.CombinedBalance, error)
}

type BalanceWriter interface {
	UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
}

// Coordinator owns the active wallet address of one account. Observers of
// Balances, Loading and Errors are called synchronously and must not call
// back into the coordinator.
type Coordinator struct {
	accountID string
	chain     ChainClient
	writer    BalanceWriter
	now       func() time.Time

	mu         sync.Mutex
	address    string
	generation uint64
	seq        uint64
	published  uint64

	// pending token balance for the ledger; one caller drains it at a time
	writePending bool
	writeValue   decimal.Decimal
	writing      bool

	balances *observable.Value[domain.WalletBalanceSnapshot]
	loading  *observable.Value[bool]
	errs     *observable.Value[error]
}

func NewCoordinator(accountID string, chain ChainClient, writer BalanceWriter) *Coordinator {
	return &Coordinator{
		accountID: accountID,
		chain:     chain,
		writer:    writer,
		now:       time.Now,
		balances:  observable.New(zeroSnapshot()),
		loading:   observable.New(false),
		errs:      observable.New[error](nil),
	}
}

func zeroSnapshot() domain.WalletBalanceSnapshot {
	return domain.WalletBalanceSnapshot{SolBalance: decimal.Zero, USDCBalance: decimal.Zero}
}

func (c *Coordinator) AccountID() string {
	return c.accountID
}

func (c *Coordinator) Balances() *observable.Value[domain.WalletBalanceSnapshot] {
	return c.balances
}

func (c *Coordinator) Loading() *observable.Value[bool] {
	return c.loading
}

func (c *Coordinator) Errors() *observable.Value[error] {
	return c.errs
}

func (c *Coordinator) Address() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.address
}

// FormattedAddress is the short display form of the active address.
func (c *Coordinator) FormattedAddress() string {
	return validate.FormatAddress(c.Address())
}

// SetWalletAddress makes address active and refreshes its balances. An invalid
// address clears the active one and zeroes the published balances.
func (c *Coordinator) SetWalletAddress(ctx context.Context, address string) error {
	if !validate.IsSolanaAddress(address) {
		err := fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
		c.reset(err)
		return err
	}

	c.mu.Lock()
	c.address = address
	c.generation++
	c.writePending = false
	c.mu.Unlock()

	return c.RefreshBalances(ctx)
}

// Clear drops the active address. Refreshes still in flight are discarded and
// their balances are not written back.
func (c *Coordinator) Clear() {
	c.reset(nil)
}

func (c *Coordinator) reset(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.address = ""
	c.generation++
	c.writePending = false
	c.balances.Set(zeroSnapshot())
	c.loading.Set(false)
	c.errs.Set(err)
}

// RefreshBalances fetches both balances of the active address and publishes them.
//
// When only one leg fails the other is published, the failed one keeps its last
// value and the leg error goes to Errors; nil is returned. When both fail
// nothing is published except the error. A result for an address that was
// replaced while the call was in flight is dropped, and so is a result older
// than one already published.
func (c *Coordinator) RefreshBalances(ctx context.Context) error {
	c.mu.Lock()
	address, generation := c.address, c.generation
	c.seq++
	seq := c.seq
	c.mu.Unlock()

	if address == "" {
		return fmt.Errorf("%w: %w", domain.ErrInvalidState, domain.ErrWalletNotSet)
	}

	c.loading.Set(true)
	res, err := c.chain.GetCombinedBalance(ctx, address)

	c.mu.Lock()
	if generation != c.generation || seq < c.published {
		c.mu.Unlock()
		zap.L().Debug("dropping superseded balances", zap.String("account", c.accountID), zap.String("address", address))
		return nil
	}

	if err != nil {
		c.loading.Set(false)
		c.errs.Set(err)
		c.mu.Unlock()
		zap.L().Warn("balance refresh failed", zap.String("account", c.accountID), zap.Error(err))
		return err
	}

	snap := c.balances.Get()
	if res.NativeErr == nil {
		snap.SolBalance = res.Native
	}
	if res.TokenErr == nil {
		snap.USDCBalance = res.Token
	}
	snap.FetchedAt = c.now().UTC()

	c.published = seq
	c.balances.Set(snap)
	c.loading.Set(false)
	c.errs.Set(errors.Join(res.NativeErr, res.TokenErr))

	if res.TokenErr != nil {
		c.mu.Unlock()
		return nil
	}
	c.writePending = true
	c.writeValue = res.Token
	if c.writing {
		c.mu.Unlock()
		return nil
	}
	c.writing = true
	c.mu.Unlock()

	c.drainWriteBack(context.WithoutCancel(ctx))
	return nil
}

// drainWriteBack writes the pending token balance until none is left, so the
// ledger always ends on the latest published value.
func (c *Coordinator) drainWriteBack(ctx context.Context) {
	for {
		c.mu.Lock()
		if !c.writePending {
			c.writing = false
			c.mu.Unlock()
			return
		}
		value := c.writeValue
		c.writePending = false
		c.mu.Unlock()

		if err := c.writer.UpdateBalance(ctx, c.accountID, value); err != nil {
			zap.L().Warn("can't write back token balance", zap.String("account", c.accountID), zap.Error(err))
		}
	}
}
