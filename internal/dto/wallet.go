package dto

import "time"

type LinkWalletRequestDTO struct {
	Address string `json:"address" example:"So11111111111111111111111111111111111111112"`
}

type WalletResponseDTO struct {
	Address          string    `json:"address"`
	FormattedAddress string    `json:"formattedAddress" example:"So1111...1112"`
	SolBalance       string    `json:"solBalance" example:"1.5"`
	USDCBalance      string    `json:"usdcBalance" example:"20"`
	FetchedAt        time.Time `json:"fetchedAt"`
	Loading          bool      `json:"loading"`
	Error            string    `json:"error,omitempty"`
}

type PaymentLinkRequestDTO struct {
	Recipient string `json:"recipient" example:"So11111111111111111111111111111111111111112"`
	Amount    string `json:"amount" example:"42.50"`
	Memo      string `json:"memo,omitempty"`
}

type PaymentLinkResponseDTO struct {
	URL string `json:"url"`
}

type TransactionResponseDTO struct {
	Signature    string     `json:"signature"`
	Status       string     `json:"status" example:"CONFIRMED"`
	Confirmation string     `json:"confirmation,omitempty" example:"finalized"`
	Slot         uint64     `json:"slot,omitempty"`
	BlockTime    *time.Time `json:"blockTime,omitempty"`
	Failed       bool       `json:"failed"`
	ExplorerURL  string     `json:"explorerUrl"`
	SolscanURL   string     `json:"solscanUrl"`
}
