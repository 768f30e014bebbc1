package dto

import "time"

type LocationDTO struct {
	Latitude  float64 `json:"latitude" example:"52.52"`
	Longitude float64 `json:"longitude" example:"13.405"`
	Address   string  `json:"address,omitempty" example:"Berlin"`
}

type SubmitClaimRequestDTO struct {
	Title       string       `json:"title" example:"Taxi to airport"`
	Description string       `json:"description" example:"Client meeting in Berlin"`
	Amount      string       `json:"amount" example:"42.50"`
	Category    string       `json:"category" example:"TRAVEL"`
	ReceiptURL  string       `json:"receiptUrl,omitempty"`
	Notes       string       `json:"notes,omitempty"`
	Location    *LocationDTO `json:"location,omitempty"`
}

type ReviewClaimRequestDTO struct {
	Status string `json:"status" example:"APPROVED"`
	Reason string `json:"reason,omitempty" example:"Missing receipt"`
}

type MarkPaidRequestDTO struct {
	Signature    string `json:"signature"`
	PayerAddress string `json:"payerAddress" example:"So11111111111111111111111111111111111111112"`
}

type ClaimResponseDTO struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Amount          string       `json:"amount" example:"42.50"`
	Currency        string       `json:"currency" example:"USDC"`
	Category        string       `json:"category" example:"TRAVEL"`
	CategoryLabel   string       `json:"categoryLabel" example:"Travel"`
	Status          string       `json:"status" example:"PENDING"`
	StatusLabel     string       `json:"statusLabel" example:"Pending"`
	ReceiptURL      string       `json:"receiptUrl,omitempty"`
	SubmittedAt     *time.Time   `json:"submittedAt,omitempty"`
	ProcessedAt     *time.Time   `json:"processedAt,omitempty"`
	ApprovedBy      string       `json:"approvedBy,omitempty"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	TxSignature     string       `json:"txSignature,omitempty"`
	TxExplorerURL   string       `json:"txExplorerUrl,omitempty"`
	PaidAt          *time.Time   `json:"paidAt,omitempty"`
	PayerAddress    string       `json:"payerAddress,omitempty"`
	Location        *LocationDTO `json:"location,omitempty"`
}

type BucketDTO struct {
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

type ClaimStatsResponseDTO struct {
	Pending     BucketDTO `json:"pending"`
	Approved    BucketDTO `json:"approved"`
	Paid        BucketDTO `json:"paid"`
	Rejected    BucketDTO `json:"rejected"`
	TotalAmount string    `json:"totalAmount"`
}

type ReceiptResponseDTO struct {
	URL string `json:"url"`
}
