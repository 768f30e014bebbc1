package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSolanaAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{name: "system program", address: "11111111111111111111111111111111", valid: true},
		{name: "usdc mint", address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", valid: true},
		{name: "too short", address: "1111111111111111111A", valid: false},
		{name: "too long", address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1vX", valid: false},
		{name: "contains zero", address: "0111111111111111111111111111111111", valid: false},
		{name: "contains capital o", address: "O111111111111111111111111111111111", valid: false},
		{name: "contains capital i", address: "I111111111111111111111111111111111", valid: false},
		{name: "contains lower l", address: "l111111111111111111111111111111111", valid: false},
		{name: "non ascii", address: "ü1111111111111111111111111111111111", valid: false},
		{name: "empty", address: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsSolanaAddress(tt.address))
		})
	}
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "EPjFWd...Dt1v", FormatAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"))
	assert.Equal(t, "short", FormatAddress("short"))
	assert.Equal(t, "123456789012", FormatAddress("123456789012"))
}
