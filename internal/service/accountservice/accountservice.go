package accountservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/chain"
	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/reconcile"
	"github.com/GlebRadaev/stableflow/pkg/validate"
)

//go:generate mockgen -source=accountservice.go -destination=mock_accountservice.go -package=accountservice
type Repo interface {
	GetAccount(ctx context.Context, accountID string) (domain.UserAccount, error)
	UpdateWalletAddress(ctx context.Context, accountID, address string) error
}

type ChainClient interface {
	IsTransactionConfirmed(ctx context.Context, signature string) (domain.TxStatus, error)
	GetTransaction(ctx context.Context, signature string) (*chain.Transaction, error)
	ExplorerURL(signature string) string
	SolscanURL(signature string) string
	USDCMint() string
}

type Wallets interface {
	Get(accountID string) *reconcile.Coordinator
	Lookup(accountID string) (*reconcile.Coordinator, bool)
	Remove(accountID string)
}

// WalletState is what the coordinator currently publishes for an account.
type WalletState struct {
	Address          string
	FormattedAddress string
	Balances         domain.WalletBalanceSnapshot
	Loading          bool
	Err              error
}

type TxDetails struct {
	Signature   string
	Status      domain.TxStatus
	Slot        uint64
	BlockTime   *time.Time
	Failed      bool
	ExplorerURL string
	SolscanURL  string
}

type Service struct {
	repo    Repo
	chain   ChainClient
	wallets Wallets
	label   string
}

func New(repo Repo, chain ChainClient, wallets Wallets, label string) *Service {
	return &Service{repo: repo, chain: chain, wallets: wallets, label: label}
}

func stateOf(c *reconcile.Coordinator) WalletState {
	return WalletState{
		Address:          c.Address(),
		FormattedAddress: c.FormattedAddress(),
		Balances:         c.Balances().Get(),
		Loading:          c.Loading().Get(),
		Err:              c.Errors().Get(),
	}
}

func (s *Service) GetAccount(ctx context.Context, accountID string) (domain.UserAccount, error) {
	return s.repo.GetAccount(ctx, accountID)
}

// LinkWallet persists address on the account and makes it the active wallet.
// An invalid address is never persisted; it clears the active wallet and the
// stored one instead.
func (s *Service) LinkWallet(ctx context.Context, accountID, address string) (WalletState, error) {
	if !validate.IsSolanaAddress(address) {
		return WalletState{}, s.clearInvalid(ctx, accountID, address)
	}

	if err := s.repo.UpdateWalletAddress(ctx, accountID, address); err != nil {
		return WalletState{}, err
	}

	coord := s.wallets.Get(accountID)
	if err := coord.SetWalletAddress(ctx, address); err != nil {
		zap.L().Warn("wallet linked but balances unavailable", zap.String("account", accountID), zap.Error(err))
	}

	zap.L().Info("wallet linked", zap.String("account", accountID), zap.String("address", coord.FormattedAddress()))
	return stateOf(coord), nil
}

func (s *Service) clearInvalid(ctx context.Context, accountID, address string) error {
	err := fmt.Errorf("%w: %q", domain.ErrInvalidAddress, address)
	if coord, ok := s.wallets.Lookup(accountID); ok {
		err = coord.SetWalletAddress(ctx, address)
	}
	if perr := s.repo.UpdateWalletAddress(ctx, accountID, ""); perr != nil {
		zap.L().Error("can't clear wallet address", zap.String("account", accountID), zap.Error(perr))
	}
	return err
}

func (s *Service) UnlinkWallet(ctx context.Context, accountID string) error {
	if err := s.repo.UpdateWalletAddress(ctx, accountID, ""); err != nil {
		return err
	}
	s.wallets.Remove(accountID)
	return nil
}

// hydrate loads the persisted wallet into a fresh coordinator. It reports
// whether a refresh already ran. Accounts without a wallet get no coordinator.
func (s *Service) hydrate(ctx context.Context, accountID string) (*reconcile.Coordinator, bool, error) {
	if coord, ok := s.wallets.Lookup(accountID); ok && coord.Address() != "" {
		return coord, false, nil
	}

	acc, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if acc.WalletAddress == "" {
		return nil, false, domain.ErrWalletNotSet
	}

	coord := s.wallets.Get(accountID)
	if err := coord.SetWalletAddress(ctx, acc.WalletAddress); errors.Is(err, domain.ErrInvalidAddress) {
		return nil, false, err
	}
	return coord, true, nil
}

// Wallet returns the last published wallet state, loading it on first access.
func (s *Service) Wallet(ctx context.Context, accountID string) (WalletState, error) {
	coord, _, err := s.hydrate(ctx, accountID)
	if err != nil {
		return WalletState{}, err
	}
	return stateOf(coord), nil
}

func (s *Service) Refresh(ctx context.Context, accountID string) (WalletState, error) {
	coord, refreshed, err := s.hydrate(ctx, accountID)
	if err != nil {
		return WalletState{}, err
	}
	if !refreshed {
		if err := coord.RefreshBalances(ctx); err != nil {
			return WalletState{}, err
		}
	}
	return stateOf(coord), nil
}

// PaymentLink builds a USDC transfer request payable to recipient.
func (s *Service) PaymentLink(recipient string, amount decimal.Decimal, memo string) (string, error) {
	return reconcile.PaymentRequestURL(recipient, amount, s.chain.USDCMint(), s.label, memo)
}

// TransactionStatus combines the signature status with the transaction
// record when the node has one.
func (s *Service) TransactionStatus(ctx context.Context, signature string) (TxDetails, error) {
	if signature == "" {
		return TxDetails{}, domain.NewValidationError("signature", "Transaction signature is required")
	}

	status, err := s.chain.IsTransactionConfirmed(ctx, signature)
	if err != nil {
		return TxDetails{}, err
	}
	details := TxDetails{
		Signature:   signature,
		Status:      status,
		ExplorerURL: s.chain.ExplorerURL(signature),
		SolscanURL:  s.chain.SolscanURL(signature),
	}
	if status.State == domain.TxNotFound {
		return details, nil
	}

	tx, err := s.chain.GetTransaction(ctx, signature)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return details, nil
	case err != nil:
		return TxDetails{}, fmt.Errorf("transaction %s: %w", signature, err)
	}

	details.Slot = tx.Slot
	details.Failed = tx.Failed
	if tx.BlockTime != nil {
		bt := time.Unix(*tx.BlockTime, 0).UTC()
		details.BlockTime = &bt
	}
	return details, nil
}
