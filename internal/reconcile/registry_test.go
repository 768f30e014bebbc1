package reconcile

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/stableflow/internal/config"
	"github.com/GlebRadaev/stableflow/internal/domain"
)

func NewRegistryMock(t *testing.T) (*Registry, *MockChainClient, *MockBalanceWriter) {
	ctrl := gomock.NewController(t)
	chain := NewMockChainClient(ctrl)
	writer := NewMockBalanceWriter(ctrl)
	cfg := &config.Config{RefreshSchedule: "@every 1h", RefreshWorkers: 2}

	r := NewRegistry(cfg, chain, writer)
	t.Cleanup(r.Close)
	return r, chain, writer
}

func TestRegistry_Get(t *testing.T) {
	r, _, _ := NewRegistryMock(t)

	_, ok := r.Lookup("u1")
	assert.False(t, ok)

	c := r.Get("u1")
	assert.Same(t, c, r.Get("u1"))
	assert.Equal(t, "u1", c.AccountID())

	got, ok := r.Lookup("u1")
	assert.True(t, ok)
	assert.Same(t, c, got)

	c.address = addrA
	r.Remove("u1")
	_, ok = r.Lookup("u1")
	assert.False(t, ok)
	assert.Empty(t, c.Address())
}

func TestRegistry_RefreshAll(t *testing.T) {
	r, chain, writer := NewRegistryMock(t)

	r.Get("idle")
	r.Get("u1").address = addrA
	r.Get("u2").address = addrB

	var calls atomic.Int32
	chain.EXPECT().GetCombinedBalance(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string) (domain.CombinedBalance, error) {
			calls.Add(1)
			return domain.CombinedBalance{Native: dec("1"), Token: dec("2")}, nil
		}).Times(2)
	writer.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), dec("2")).Return(nil).Times(2)

	r.RefreshAll(context.Background())

	require.Eventually(t, func() bool {
		return r.Get("u1").Balances().Get().USDCBalance.Equal(dec("2")) &&
			r.Get("u2").Balances().Get().USDCBalance.Equal(dec("2"))
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistry_RefreshAllSkipsInFlight(t *testing.T) {
	r, _, _ := NewRegistryMock(t)
	r.Get("u1").address = addrA

	r.refreshing.Store("u1", struct{}{})
	r.RefreshAll(context.Background())

	_, still := r.refreshing.Load("u1")
	assert.True(t, still)
}

func TestRegistry_StartInvalidSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := &config.Config{RefreshSchedule: "every now and then", RefreshWorkers: 1}
	r := NewRegistry(cfg, NewMockChainClient(ctrl), NewMockBalanceWriter(ctrl))
	defer r.Close()

	assert.Error(t, r.Start(context.Background()))
}
