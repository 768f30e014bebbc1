package accountservice

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/stableflow/internal/chain"
	"github.com/GlebRadaev/stableflow/internal/config"
	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/reconcile"
)

const (
	wallet = "So11111111111111111111111111111111111111112"
	mint   = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
)

type mocks struct {
	repo     *MockRepo
	chain    *MockChainClient
	balances *reconcile.MockChainClient
	writer   *reconcile.MockBalanceWriter
}

func NewMock(t *testing.T) (*Service, *reconcile.Registry, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		repo:     NewMockRepo(ctrl),
		chain:    NewMockChainClient(ctrl),
		balances: reconcile.NewMockChainClient(ctrl),
		writer:   reconcile.NewMockBalanceWriter(ctrl),
	}
	registry := reconcile.NewRegistry(&config.Config{RefreshSchedule: "@every 1m", RefreshWorkers: 1}, m.balances, m.writer)
	t.Cleanup(registry.Close)

	return New(m.repo, m.chain, registry, "StableFlow"), registry, m
}

func combined(sol, usdc string) domain.CombinedBalance {
	return domain.CombinedBalance{Native: decimal.RequireFromString(sol), Token: decimal.RequireFromString(usdc)}
}

func TestLinkWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid address", func(t *testing.T) {
		s, _, m := NewMock(t)
		m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(combined("1.5", "20"), nil)
		m.writer.EXPECT().UpdateBalance(ctx, "u1", gomock.Any()).Return(nil)
		m.repo.EXPECT().UpdateWalletAddress(ctx, "u1", wallet).Return(nil)

		state, err := s.LinkWallet(ctx, "u1", wallet)
		require.NoError(t, err)
		assert.Equal(t, wallet, state.Address)
		assert.Equal(t, "So1111...1112", state.FormattedAddress)
		assert.True(t, state.Balances.USDCBalance.Equal(decimal.NewFromInt(20)))
		assert.False(t, state.Loading)
		assert.NoError(t, state.Err)
	})

	t.Run("Balances unavailable", func(t *testing.T) {
		s, _, m := NewMock(t)
		netErr := &domain.NetworkError{Op: "getBalance", Err: errors.New("timeout")}
		m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(domain.CombinedBalance{}, netErr)
		m.repo.EXPECT().UpdateWalletAddress(ctx, "u1", wallet).Return(nil)

		state, err := s.LinkWallet(ctx, "u1", wallet)
		require.NoError(t, err)
		assert.ErrorIs(t, state.Err, netErr)
	})

	t.Run("Persist failure leaves session untouched", func(t *testing.T) {
		s, registry, m := NewMock(t)
		m.repo.EXPECT().UpdateWalletAddress(ctx, "u1", wallet).Return(errors.New("offline"))

		_, err := s.LinkWallet(ctx, "u1", wallet)
		assert.Error(t, err)

		_, ok := registry.Lookup("u1")
		assert.False(t, ok)
	})

	t.Run("Invalid address clears active and stored wallet", func(t *testing.T) {
		s, registry, m := NewMock(t)

		stored := ""
		m.repo.EXPECT().UpdateWalletAddress(ctx, "u1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, address string) error {
				stored = address
				return nil
			}).Times(2)
		m.repo.EXPECT().GetAccount(ctx, "u1").
			DoAndReturn(func(context.Context, string) (domain.UserAccount, error) {
				return domain.UserAccount{ID: "u1", WalletAddress: stored}, nil
			})
		m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(combined("1", "50"), nil)
		m.writer.EXPECT().UpdateBalance(ctx, "u1", gomock.Any()).Return(nil)

		_, err := s.LinkWallet(ctx, "u1", wallet)
		require.NoError(t, err)

		_, err = s.LinkWallet(ctx, "u1", "bad-address")
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
		assert.Empty(t, stored)

		coord, ok := registry.Lookup("u1")
		require.True(t, ok)
		assert.Empty(t, coord.Address())
		assert.True(t, coord.Balances().Get().USDCBalance.IsZero())
		assert.ErrorIs(t, coord.Errors().Get(), domain.ErrInvalidAddress)

		_, err = s.Wallet(ctx, "u1")
		assert.ErrorIs(t, err, domain.ErrWalletNotSet)
		assert.Empty(t, coord.Address())
	})

	t.Run("Invalid address without session", func(t *testing.T) {
		s, registry, m := NewMock(t)
		m.repo.EXPECT().UpdateWalletAddress(ctx, "u1", "").Return(nil)

		_, err := s.LinkWallet(ctx, "u1", "not-a-wallet")
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)

		_, ok := registry.Lookup("u1")
		assert.False(t, ok)
	})
}

func TestUnlinkWallet(t *testing.T) {
	ctx := context.Background()
	s, registry, m := NewMock(t)

	m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(combined("1", "5"), nil)
	m.writer.EXPECT().UpdateBalance(ctx, "u1", gomock.Any()).Return(nil)
	coord := registry.Get("u1")
	require.NoError(t, coord.SetWalletAddress(ctx, wallet))

	m.repo.EXPECT().UpdateWalletAddress(ctx, "u1", "").Return(nil)

	require.NoError(t, s.UnlinkWallet(ctx, "u1"))
	_, ok := registry.Lookup("u1")
	assert.False(t, ok)
	assert.Empty(t, coord.Address())
	assert.True(t, coord.Balances().Get().USDCBalance.IsZero())
}

func TestWallet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		prepareMock   func(m mocks)
		expectedError error
	}{
		{
			name: "Hydrates from account",
			prepareMock: func(m mocks) {
				m.repo.EXPECT().GetAccount(ctx, "u1").Return(domain.UserAccount{ID: "u1", WalletAddress: wallet}, nil)
				m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(combined("0.1", "3"), nil)
				m.writer.EXPECT().UpdateBalance(ctx, "u1", gomock.Any()).Return(nil)
			},
		},
		{
			name: "No wallet linked",
			prepareMock: func(m mocks) {
				m.repo.EXPECT().GetAccount(ctx, "u1").Return(domain.UserAccount{ID: "u1"}, nil)
			},
			expectedError: domain.ErrWalletNotSet,
		},
		{
			name: "Unknown account",
			prepareMock: func(m mocks) {
				m.repo.EXPECT().GetAccount(ctx, "u1").Return(domain.UserAccount{}, domain.ErrNotFound)
			},
			expectedError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, registry, m := NewMock(t)
			tt.prepareMock(m)

			state, err := s.Wallet(ctx, "u1")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				_, ok := registry.Lookup("u1")
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, wallet, state.Address)
			assert.True(t, state.Balances.SolBalance.Equal(decimal.RequireFromString("0.1")))
		})
	}
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	s, registry, m := NewMock(t)

	m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(combined("1", "5"), nil)
	m.writer.EXPECT().UpdateBalance(ctx, "u1", gomock.Any()).Return(nil)
	require.NoError(t, registry.Get("u1").SetWalletAddress(ctx, wallet))

	m.balances.EXPECT().GetCombinedBalance(ctx, wallet).Return(domain.CombinedBalance{}, &domain.RPCError{Code: -32005, Message: "rate limited"})

	_, err := s.Refresh(ctx, "u1")
	var rpcErr *domain.RPCError
	assert.ErrorAs(t, err, &rpcErr)

	state, err := s.Wallet(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, state.Balances.USDCBalance.Equal(decimal.NewFromInt(5)))
}

func TestPaymentLink(t *testing.T) {
	s, _, m := NewMock(t)
	m.chain.EXPECT().USDCMint().Return(mint).AnyTimes()

	link, err := s.PaymentLink(wallet, decimal.RequireFromString("12.5"), "claim c1")
	require.NoError(t, err)
	assert.Equal(t, "solana:"+wallet+"?amount=12.5&spl-token="+mint+"&label=StableFlow&message=claim%20c1", link)

	_, err = s.PaymentLink("bad", decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}

func TestTransactionStatus(t *testing.T) {
	ctx := context.Background()
	blockTime := int64(1717243200)

	tests := []struct {
		name        string
		prepareMock func(m *MockChainClient)
		check       func(t *testing.T, d TxDetails, err error)
	}{
		{
			name: "Confirmed with record",
			prepareMock: func(m *MockChainClient) {
				m.EXPECT().IsTransactionConfirmed(ctx, "sig").Return(domain.TxStatus{State: domain.TxConfirmed, Raw: "finalized"}, nil)
				m.EXPECT().GetTransaction(ctx, "sig").Return(&chain.Transaction{Signature: "sig", Slot: 42, BlockTime: &blockTime}, nil)
			},
			check: func(t *testing.T, d TxDetails, err error) {
				require.NoError(t, err)
				assert.Equal(t, uint64(42), d.Slot)
				require.NotNil(t, d.BlockTime)
				assert.Equal(t, int64(1717243200), d.BlockTime.Unix())
				assert.Equal(t, "explorer/sig", d.ExplorerURL)
			},
		},
		{
			name: "Unknown signature",
			prepareMock: func(m *MockChainClient) {
				m.EXPECT().IsTransactionConfirmed(ctx, "sig").Return(domain.TxStatus{State: domain.TxNotFound}, nil)
			},
			check: func(t *testing.T, d TxDetails, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.TxNotFound, d.Status.State)
				assert.Zero(t, d.Slot)
			},
		},
		{
			name: "Record pruned",
			prepareMock: func(m *MockChainClient) {
				m.EXPECT().IsTransactionConfirmed(ctx, "sig").Return(domain.TxStatus{State: domain.TxPending, Raw: "processed"}, nil)
				m.EXPECT().GetTransaction(ctx, "sig").Return(nil, domain.ErrNotFound)
			},
			check: func(t *testing.T, d TxDetails, err error) {
				require.NoError(t, err)
				assert.Equal(t, domain.TxPending, d.Status.State)
			},
		},
		{
			name: "Node unreachable",
			prepareMock: func(m *MockChainClient) {
				m.EXPECT().IsTransactionConfirmed(ctx, "sig").Return(domain.TxStatus{}, &domain.NetworkError{Op: "getSignatureStatuses", Err: errors.New("refused")})
			},
			check: func(t *testing.T, _ TxDetails, err error) {
				var netErr *domain.NetworkError
				assert.ErrorAs(t, err, &netErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, m := NewMock(t)
			m.chain.EXPECT().ExplorerURL("sig").Return("explorer/sig").AnyTimes()
			m.chain.EXPECT().SolscanURL("sig").Return("solscan/sig").AnyTimes()
			tt.prepareMock(m.chain)

			d, err := s.TransactionStatus(ctx, "sig")
			tt.check(t, d, err)
		})
	}
}
