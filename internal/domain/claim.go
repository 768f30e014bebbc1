package domain

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromInt(MaxClaimAmount)

// ValidateSubmission runs every submission rule and returns the first violation.
func ValidateSubmission(ownerID string, in ClaimInput) error {
	if utf8.RuneCountInString(strings.TrimSpace(in.Title)) < 3 {
		return NewValidationError("title", "Title must be at least 3 characters")
	}
	if utf8.RuneCountInString(strings.TrimSpace(in.Description)) < 10 {
		return NewValidationError("description", "Description must be at least 10 characters")
	}
	if !in.Amount.IsPositive() {
		return NewValidationError("amount", "Amount must be greater than 0")
	}
	if in.Amount.GreaterThan(maxAmount) {
		return NewValidationError("amount", "Amount must not exceed 100,000 USDC")
	}
	if in.Category == "" {
		return NewValidationError("category", "Category must be selected")
	}
	if !in.Category.Valid() {
		return NewValidationError("category", "Unknown category "+string(in.Category))
	}
	if strings.TrimSpace(ownerID) == "" {
		return ErrNotAuthenticated
	}
	return nil
}

// NewClaim builds an unsaved claim from validated input. Identity, status,
// currency and submission time are stamped by the store layer.
func NewClaim(ownerID string, in ClaimInput) ExpenseClaim {
	return ExpenseClaim{
		UserID:      ownerID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Currency:    Currency,
		Category:    in.Category,
		Status:      StatusPending,
		ReceiptURL:  in.ReceiptURL,
		Notes:       in.Notes,
		Location:    in.Location,
	}
}

// SortClaims orders claims newest first; claims without a submission time go last.
func SortClaims(claims []ExpenseClaim) {
	sort.SliceStable(claims, func(i, j int) bool {
		a, b := claims[i].SubmittedAt, claims[j].SubmittedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// FilterByOwner keeps the claims owned by ownerID, preserving order.
func FilterByOwner(claims []ExpenseClaim, ownerID string) []ExpenseClaim {
	owned := make([]ExpenseClaim, 0, len(claims))
	for _, c := range claims {
		if c.UserID == ownerID {
			owned = append(owned, c)
		}
	}
	return owned
}
