// Package syncer turns store change notifications into ordered account and
// claim-list snapshots and owns every read and write against the store.
package syncer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/store"
)

const (
	usersPath       = "users"
	expensesPath    = "expenses"
	credentialsPath = "credentials"
)

type Syncer struct {
	store store.Store
	now   func() time.Time

	// serializes subscribe/replace so two callers can't both install a handle for one key
	subscribeMu sync.Mutex
	mu          sync.Mutex
	subs        map[string]*Handle
}

func New(s store.Store) *Syncer {
	return &Syncer{
		store: s,
		now:   time.Now,
		subs:  make(map[string]*Handle),
	}
}

// Handle is one live subscription. Stop is idempotent and no callback runs
// once it has returned.
type Handle struct {
	key    string
	s      *Syncer
	sub    store.Subscription
	once   sync.Once
	closed chan struct{}
}

func (h *Handle) Stop() {
	h.once.Do(func() {
		if h.sub != nil {
			h.sub.Stop()
		}
		h.s.forget(h.key, h)
	})
}

// Done is closed when the subscription has terminated, by Stop or by error.
func (h *Handle) Done() <-chan struct{} {
	if h.sub == nil {
		return h.closed
	}
	return h.sub.Done()
}

func (s *Syncer) forget(key string, h *Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[key] == h {
		delete(s.subs, key)
	}
}

// active reports the live handle for key, if any.
func (s *Syncer) active(key string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs[key]
}

func (s *Syncer) subscribe(ctx context.Context, key, path string, onChange func(json.RawMessage), onError func(error)) (*Handle, error) {
	s.subscribeMu.Lock()
	defer s.subscribeMu.Unlock()

	s.mu.Lock()
	old := s.subs[key]
	s.mu.Unlock()
	if old != nil {
		old.Stop()
	}

	h := &Handle{key: key, s: s, closed: make(chan struct{})}
	sub, err := s.store.Subscribe(ctx, path, onChange, func(err error) {
		s.forget(key, h)
		if onError != nil {
			onError(&domain.SubscriptionError{Path: path, Err: err})
		}
	})
	if err != nil {
		close(h.closed)
		return nil, &domain.SubscriptionError{Path: path, Err: err}
	}
	h.sub = sub

	s.mu.Lock()
	s.subs[key] = h
	s.mu.Unlock()

	// the subscription may already have failed before it was registered
	select {
	case <-sub.Done():
		s.forget(key, h)
	default:
	}
	return h, nil
}

// SubscribeAccount delivers full account snapshots. A second subscription for
// the same account replaces the first.
func (s *Syncer) SubscribeAccount(ctx context.Context, accountID string, onAccount func(domain.UserAccount), onError func(error)) (*Handle, error) {
	path := store.Join(usersPath, accountID)
	return s.subscribe(ctx, "account:"+accountID, path, func(raw json.RawMessage) {
		if store.IsNull(raw) {
			return
		}
		var acc domain.UserAccount
		if err := json.Unmarshal(raw, &acc); err != nil {
			zap.L().Warn("can't decode account snapshot", zap.String("path", path), zap.Error(err))
			return
		}
		onAccount(acc)
	}, onError)
}

// SubscribeClaims watches the whole expenses collection and delivers the
// owner's claims, newest first, on every change.
func (s *Syncer) SubscribeClaims(ctx context.Context, ownerID string, onClaims func([]domain.ExpenseClaim), onError func(error)) (*Handle, error) {
	return s.subscribe(ctx, "claims:"+ownerID, expensesPath, func(raw json.RawMessage) {
		onClaims(ownedClaims(raw, ownerID))
	}, onError)
}

func decodeClaims(raw json.RawMessage) []domain.ExpenseClaim {
	if store.IsNull(raw) {
		return []domain.ExpenseClaim{}
	}
	var docs map[string]json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		zap.L().Warn("can't decode expenses snapshot", zap.Error(err))
		return []domain.ExpenseClaim{}
	}
	claims := make([]domain.ExpenseClaim, 0, len(docs))
	for id, doc := range docs {
		var c domain.ExpenseClaim
		if err := json.Unmarshal(doc, &c); err != nil {
			zap.L().Warn("skipping malformed claim", zap.String("id", id), zap.Error(err))
			continue
		}
		if c.ID == "" {
			c.ID = id
		}
		claims = append(claims, c)
	}
	return claims
}

func ownedClaims(raw json.RawMessage, ownerID string) []domain.ExpenseClaim {
	claims := domain.FilterByOwner(decodeClaims(raw), ownerID)
	domain.SortClaims(claims)
	return claims
}

// ListClaims is the one-shot form of SubscribeClaims.
func (s *Syncer) ListClaims(ctx context.Context, ownerID string) ([]domain.ExpenseClaim, error) {
	raw, err := s.store.Read(ctx, expensesPath)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.ExpenseClaim{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ownedClaims(raw, ownerID), nil
}

func (s *Syncer) GetClaim(ctx context.Context, id string) (domain.ExpenseClaim, error) {
	var c domain.ExpenseClaim
	raw, err := s.store.Read(ctx, store.Join(expensesPath, id))
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("decode claim %s: %w", id, err)
	}
	return c, nil
}

// SubmitClaim reserves an id and writes the complete claim in one write.
// Status, currency and submission time are overwritten regardless of input.
func (s *Syncer) SubmitClaim(ctx context.Context, claim domain.ExpenseClaim) (domain.ExpenseClaim, error) {
	id, err := s.store.ReserveID(ctx, expensesPath)
	if err != nil {
		return domain.ExpenseClaim{}, &domain.WriteError{Path: expensesPath, Err: err}
	}

	now := s.now().UTC()
	claim.ID = id
	claim.Status = domain.StatusPending
	claim.Currency = domain.Currency
	claim.SubmittedAt = &now

	path := store.Join(expensesPath, id)
	if err := s.store.Write(ctx, path, claim); err != nil {
		zap.L().Error("can't write claim", zap.String("path", path), zap.Error(err))
		return domain.ExpenseClaim{}, &domain.WriteError{Path: path, Err: err}
	}
	return claim, nil
}

// PatchClaimStatus moves one claim to status and writes only the changed fields.
// The current status is re-read and checked inside the store transaction.
func (s *Syncer) PatchClaimStatus(ctx context.Context, id string, status domain.Status, patch domain.ClaimPatch) (domain.ExpenseClaim, error) {
	path := store.Join(expensesPath, id)
	var updated domain.ExpenseClaim

	err := s.store.Transact(ctx, path, func(current json.RawMessage) (map[string]any, error) {
		if store.IsNull(current) {
			return nil, fmt.Errorf("claim %s: %w", id, domain.ErrNotFound)
		}
		if err := json.Unmarshal(current, &updated); err != nil {
			return nil, fmt.Errorf("decode claim %s: %w", id, err)
		}
		if err := updated.Status.TransitionTo(status); err != nil {
			return nil, err
		}

		fields := patch.Fields()
		fields["status"] = status
		updated.Status = status
		applyPatch(&updated, patch)
		return fields, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidState):
		return domain.ExpenseClaim{}, err
	default:
		return domain.ExpenseClaim{}, &domain.WriteError{Path: path, Err: err}
	}
	if updated.ID == "" {
		updated.ID = id
	}
	return updated, nil
}

func applyPatch(c *domain.ExpenseClaim, p domain.ClaimPatch) {
	if p.ProcessedAt != nil {
		t := p.ProcessedAt.UTC()
		c.ProcessedAt = &t
	}
	if p.ApprovedBy != "" {
		c.ApprovedBy = p.ApprovedBy
	}
	if p.RejectionReason != "" {
		c.RejectionReason = p.RejectionReason
	}
	if p.TxSignature != "" {
		c.TxSignature = p.TxSignature
	}
	if p.TxExplorerURL != "" {
		c.TxExplorerURL = p.TxExplorerURL
	}
	if p.PaidAt != nil {
		t := p.PaidAt.UTC()
		c.PaidAt = &t
	}
	if p.PayerAddress != "" {
		c.PayerAddress = p.PayerAddress
	}
}

// SetReceiptURL attaches an uploaded receipt to a claim.
func (s *Syncer) SetReceiptURL(ctx context.Context, id, url string) error {
	path := store.Join(expensesPath, id)
	if err := s.store.Update(ctx, path, map[string]any{"receiptUrl": url}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return &domain.WriteError{Path: path, Err: err}
	}
	return nil
}

func (s *Syncer) GetAccount(ctx context.Context, accountID string) (domain.UserAccount, error) {
	var acc domain.UserAccount
	raw, err := s.store.Read(ctx, store.Join(usersPath, accountID))
	if err != nil {
		return acc, err
	}
	if err := json.Unmarshal(raw, &acc); err != nil {
		return acc, fmt.Errorf("decode account %s: %w", accountID, err)
	}
	return acc, nil
}

func (s *Syncer) CreateAccount(ctx context.Context, acc domain.UserAccount) (domain.UserAccount, error) {
	if acc.ID == "" {
		id, err := s.store.ReserveID(ctx, usersPath)
		if err != nil {
			return acc, &domain.WriteError{Path: usersPath, Err: err}
		}
		acc.ID = id
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = s.now().UTC()
	}
	if acc.AccountType == "" {
		acc.AccountType = domain.AccountPersonal
	}

	path := store.Join(usersPath, acc.ID)
	if err := s.store.Write(ctx, path, acc); err != nil {
		return acc, &domain.WriteError{Path: path, Err: err}
	}
	return acc, nil
}

// UpdateBalance writes the ledger balance of an account.
func (s *Syncer) UpdateBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	path := store.Join(usersPath, accountID, "balance")
	if err := s.store.Write(ctx, path, balance); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	return nil
}

func (s *Syncer) UpdateWalletAddress(ctx context.Context, accountID, address string) error {
	path := store.Join(usersPath, accountID, "walletAddress")
	var value any
	if address != "" {
		value = address
	}
	if err := s.store.Write(ctx, path, value); err != nil {
		return &domain.WriteError{Path: path, Err: err}
	}
	return nil
}

// credentialKey maps an email onto a path-safe document id.
func credentialKey(email string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

func (s *Syncer) GetCredential(ctx context.Context, email string) (domain.Credential, error) {
	var cred domain.Credential
	raw, err := s.store.Read(ctx, store.Join(credentialsPath, credentialKey(email)))
	if err != nil {
		return cred, err
	}
	if err := json.Unmarshal(raw, &cred); err != nil {
		return cred, fmt.Errorf("decode credential: %w", err)
	}
	return cred, nil
}

// SaveCredential stores cred unless a credential for the same email exists.
// It reports created=false when the email is already taken.
func (s *Syncer) SaveCredential(ctx context.Context, cred domain.Credential) (created bool, err error) {
	path := store.Join(credentialsPath, credentialKey(cred.Email))
	err = s.store.Transact(ctx, path, func(current json.RawMessage) (map[string]any, error) {
		if !store.IsNull(current) {
			return nil, nil
		}
		created = true
		return map[string]any{
			"accountId":    cred.AccountID,
			"email":        cred.Email,
			"passwordHash": cred.PasswordHash,
		}, nil
	})
	if err != nil {
		return false, &domain.WriteError{Path: path, Err: err}
	}
	return created, nil
}

// Close stops every subscription opened through this syncer.
func (s *Syncer) Close() {
	s.mu.Lock()
	open := make([]*Handle, 0, len(s.subs))
	for _, h := range s.subs {
		open = append(open, h)
	}
	s.mu.Unlock()

	for _, h := range open {
		h.Stop()
	}
}
