package claimservice

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/syncer"
	"github.com/GlebRadaev/stableflow/pkg/blob"
	"github.com/GlebRadaev/stableflow/pkg/broker"
	"github.com/GlebRadaev/stableflow/pkg/validate"
)

//go:generate mockgen -source=claimservice.go -destination=mock_claimservice.go -package=claimservice
type Repo interface {
	SubmitClaim(ctx context.Context, claim domain.ExpenseClaim) (domain.ExpenseClaim, error)
	PatchClaimStatus(ctx context.Context, id string, status domain.Status, patch domain.ClaimPatch) (domain.ExpenseClaim, error)
	GetClaim(ctx context.Context, id string) (domain.ExpenseClaim, error)
	ListClaims(ctx context.Context, ownerID string) ([]domain.ExpenseClaim, error)
	SubscribeClaims(ctx context.Context, ownerID string, onClaims func([]domain.ExpenseClaim), onError func(error)) (*syncer.Handle, error)
	SetReceiptURL(ctx context.Context, id, url string) error
}

type ChainClient interface {
	IsTransactionConfirmed(ctx context.Context, signature string) (domain.TxStatus, error)
	ExplorerURL(signature string) string
}

type Uploader interface {
	Upload(ctx context.Context, ownerID string, r io.Reader, size int64, progress blob.ProgressFunc) (string, error)
}

// Event is published on every claim lifecycle change.
type Event struct {
	ClaimID    string          `json:"claimId"`
	UserID     string          `json:"userId"`
	Status     domain.Status   `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	ActorID    string          `json:"actorId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type Service struct {
	repo      Repo
	chain     ChainClient
	uploader  Uploader
	publisher broker.Publisher
	now       func() time.Time
}

func New(repo Repo, chain ChainClient, uploader Uploader, publisher broker.Publisher) *Service {
	return &Service{
		repo:      repo,
		chain:     chain,
		uploader:  uploader,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *Service) publish(ctx context.Context, key string, c domain.ExpenseClaim, actorID string) {
	err := s.publisher.Publish(ctx, key, Event{
		ClaimID:    c.ID,
		UserID:     c.UserID,
		Status:     c.Status,
		Amount:     c.Amount,
		Currency:   c.Currency,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		zap.L().Warn("can't publish claim event", zap.String("key", key), zap.String("claim", c.ID), zap.Error(err))
	}
}

func statusKey(status domain.Status) string {
	return "claim.status." + strings.ToLower(string(status))
}

func (s *Service) Submit(ctx context.Context, ownerID string, in domain.ClaimInput) (domain.ExpenseClaim, error) {
	if err := domain.ValidateSubmission(ownerID, in); err != nil {
		return domain.ExpenseClaim{}, err
	}
	claim, err := s.repo.SubmitClaim(ctx, domain.NewClaim(ownerID, in))
	if err != nil {
		return domain.ExpenseClaim{}, err
	}
	zap.L().Info("claim submitted", zap.String("claim", claim.ID), zap.String("owner", ownerID))
	s.publish(ctx, "claim.submitted", claim, ownerID)
	return claim, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]domain.ExpenseClaim, error) {
	return s.repo.ListClaims(ctx, ownerID)
}

// Get returns one of the caller's claims. Claims of other owners are reported as not found.
func (s *Service) Get(ctx context.Context, ownerID, id string) (domain.ExpenseClaim, error) {
	claim, err := s.repo.GetClaim(ctx, id)
	if err != nil {
		return domain.ExpenseClaim{}, err
	}
	if claim.UserID != ownerID {
		return domain.ExpenseClaim{}, fmt.Errorf("claim %s: %w", id, domain.ErrNotFound)
	}
	return claim, nil
}

func (s *Service) Stats(ctx context.Context, ownerID string) (domain.ExpenseStats, error) {
	claims, err := s.repo.ListClaims(ctx, ownerID)
	if err != nil {
		return domain.ExpenseStats{}, err
	}
	return domain.ComputeStats(claims), nil
}

// Watch streams the caller's claim list until the returned handle is stopped.
func (s *Service) Watch(ctx context.Context, ownerID string, onClaims func([]domain.ExpenseClaim), onError func(error)) (*syncer.Handle, error) {
	return s.repo.SubscribeClaims(ctx, ownerID, onClaims, onError)
}

func (s *Service) Cancel(ctx context.Context, ownerID, id string) (domain.ExpenseClaim, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return domain.ExpenseClaim{}, err
	}
	now := s.now()
	claim, err := s.repo.PatchClaimStatus(ctx, id, domain.StatusCancelled, domain.ClaimPatch{ProcessedAt: &now})
	if err != nil {
		return domain.ExpenseClaim{}, err
	}
	s.publish(ctx, statusKey(claim.Status), claim, ownerID)
	return claim, nil
}

// Review moves a claim to UNDER_REVIEW, APPROVED or REJECTED. A rejection needs a reason.
func (s *Service) Review(ctx context.Context, reviewerID, id string, decision domain.Status, reason string) (domain.ExpenseClaim, error) {
	patch := domain.ClaimPatch{}
	now := s.now()

	switch decision {
	case domain.StatusUnderReview:
	case domain.StatusApproved:
		patch.ProcessedAt = &now
		patch.ApprovedBy = reviewerID
	case domain.StatusRejected:
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return domain.ExpenseClaim{}, domain.NewValidationError("reason", "Rejection reason is required")
		}
		patch.ProcessedAt = &now
		patch.RejectionReason = reason
	default:
		return domain.ExpenseClaim{}, domain.NewValidationError("status", "Review decision must be UNDER_REVIEW, APPROVED or REJECTED")
	}

	claim, err := s.repo.PatchClaimStatus(ctx, id, decision, patch)
	if err != nil {
		return domain.ExpenseClaim{}, err
	}
	zap.L().Info("claim reviewed", zap.String("claim", id), zap.String("status", string(decision)), zap.String("reviewer", reviewerID))
	s.publish(ctx, statusKey(claim.Status), claim, reviewerID)
	return claim, nil
}

// MarkPaid records the on-chain payment of an approved claim once the
// transaction is confirmed.
func (s *Service) MarkPaid(ctx context.Context, actorID, id, signature, payerAddress string) (domain.ExpenseClaim, error) {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return domain.ExpenseClaim{}, domain.NewValidationError("signature", "Transaction signature is required")
	}
	if !validate.IsSolanaAddress(payerAddress) {
		return domain.ExpenseClaim{}, fmt.Errorf("%w: %q", domain.ErrInvalidAddress, payerAddress)
	}

	status, err := s.chain.IsTransactionConfirmed(ctx, signature)
	if err != nil {
		return domain.ExpenseClaim{}, err
	}
	if status.State != domain.TxConfirmed {
		return domain.ExpenseClaim{}, fmt.Errorf("%w: %s", domain.ErrPaymentNotConfirmed, status.State)
	}

	now := s.now()
	claim, err := s.repo.PatchClaimStatus(ctx, id, domain.StatusPaid, domain.ClaimPatch{
		TxSignature:   signature,
		TxExplorerURL: s.chain.ExplorerURL(signature),
		PaidAt:        &now,
		PayerAddress:  payerAddress,
	})
	if err != nil {
		return domain.ExpenseClaim{}, err
	}
	zap.L().Info("claim paid", zap.String("claim", id), zap.String("signature", signature))
	s.publish(ctx, statusKey(claim.Status), claim, actorID)
	return claim, nil
}

// UploadReceipt stores a receipt image and, when claimID is set, attaches it to
// that claim. The claim must belong to ownerID.
func (s *Service) UploadReceipt(ctx context.Context, ownerID, claimID string, r io.Reader, size int64) (string, error) {
	if claimID != "" {
		if _, err := s.Get(ctx, ownerID, claimID); err != nil {
			return "", err
		}
	}

	url, err := s.uploader.Upload(ctx, ownerID, r, size, func(f float64) {
		zap.L().Debug("receipt upload progress", zap.String("owner", ownerID), zap.Float64("fraction", f))
	})
	if err != nil {
		zap.L().Error("can't upload receipt", zap.String("owner", ownerID), zap.Error(err))
		return "", err
	}

	if claimID != "" {
		if err := s.repo.SetReceiptURL(ctx, claimID, url); err != nil {
			return "", err
		}
	}
	return url, nil
}
