package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Currency is the only currency a claim can be filed in.
	Currency = "USDC"

	// MaxClaimAmount is the inclusive upper bound of a single claim.
	MaxClaimAmount = 100000
)

type AccountType string

const (
	AccountPersonal AccountType = "PERSONAL"
	AccountGoogle   AccountType = "GOOGLE"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"locationAddress,omitempty"`
}

type ExpenseClaim struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Category        Category        `json:"category"`
	Status          Status          `json:"status"`
	ReceiptURL      string          `json:"receiptUrl,omitempty"`
	SubmittedAt     *time.Time      `json:"submittedAt,omitempty"`
	ProcessedAt     *time.Time      `json:"processedAt,omitempty"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	TxSignature     string          `json:"txSignature,omitempty"`
	TxExplorerURL   string          `json:"txExplorerUrl,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	PayerAddress    string          `json:"payerAddress,omitempty"`
	*Location
}

// ClaimInput is what a claimant provides; everything else is stamped on submit.
type ClaimInput struct {
	Title       string
	Description string
	Amount      decimal.Decimal
	Category    Category
	ReceiptURL  string
	Notes       string
	Location    *Location
}

// ClaimPatch holds the fields written alongside a status change. Zero values are not written.
type ClaimPatch struct {
	ProcessedAt     *time.Time
	ApprovedBy      string
	RejectionReason string
	TxSignature     string
	TxExplorerURL   string
	PaidAt          *time.Time
	PayerAddress    string
}

// Fields converts the patch into store field names.
func (p ClaimPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.ProcessedAt != nil {
		fields["processedAt"] = p.ProcessedAt.UTC()
	}
	if p.ApprovedBy != "" {
		fields["approvedBy"] = p.ApprovedBy
	}
	if p.RejectionReason != "" {
		fields["rejectionReason"] = p.RejectionReason
	}
	if p.TxSignature != "" {
		fields["txSignature"] = p.TxSignature
	}
	if p.TxExplorerURL != "" {
		fields["txExplorerUrl"] = p.TxExplorerURL
	}
	if p.PaidAt != nil {
		fields["paidAt"] = p.PaidAt.UTC()
	}
	if p.PayerAddress != "" {
		fields["payerAddress"] = p.PayerAddress
	}
	return fields
}

type UserAccount struct {
	ID            string          `json:"uid"`
	Email         string          `json:"email"`
	DisplayName   string          `json:"displayName,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	WalletAddress string          `json:"walletAddress,omitempty"`
	Verified      bool            `json:"isVerified"`
	AccountType   AccountType     `json:"accountType"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Credential is stored apart from UserAccount so account snapshots never carry password hashes.
type Credential struct {
	AccountID    string `json:"accountId"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type WalletBalanceSnapshot struct {
	SolBalance  decimal.Decimal `json:"solBalance"`
	USDCBalance decimal.Decimal `json:"usdcBalance"`
	FetchedAt   time.Time       `json:"fetchedAt"`
}

// CombinedBalance is the best-effort result of fetching both balance legs.
// A failed leg keeps its zero value and reports its error.
type CombinedBalance struct {
	Native    decimal.Decimal
	Token     decimal.Decimal
	NativeErr error
	TokenErr  error
}

// Complete reports whether both legs succeeded.
func (b CombinedBalance) Complete() bool {
	return b.NativeErr == nil && b.TokenErr == nil
}

type TxState int

const (
	TxNotFound TxState = iota
	TxPending
	TxConfirmed
)

func (s TxState) String() string {
	switch s {
	case TxPending:
		return "PENDING"
	case TxConfirmed:
		return "CONFIRMED"
	default:
		return "NOT_FOUND"
	}
}

// TxStatus is a signature lookup result. Raw keeps the node's confirmationStatus.
type TxStatus struct {
	State TxState
	Raw   string
}
