package reconcile

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/pkg/validate"
)

// PaymentRequestURL builds a Solana Pay transfer request for an external
// wallet. It performs no network call.
func PaymentRequestURL(recipient string, amount decimal.Decimal, mint, label, memo string) (string, error) {
	if !validate.IsSolanaAddress(recipient) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, recipient)
	}
	if !amount.IsPositive() {
		return "", domain.NewValidationError("amount", "Amount must be greater than 0")
	}

	var b strings.Builder
	b.WriteString("solana:")
	b.WriteString(recipient)
	b.WriteString("?amount=")
	b.WriteString(amount.String())
	b.WriteString("&spl-token=")
	b.WriteString(mint)
	b.WriteString("&label=")
	b.WriteString(escape(label))
	if memo != "" {
		b.WriteString("&message=")
		b.WriteString(escape(memo))
	}
	return b.String(), nil
}

// escape percent-encodes s, spaces included.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
