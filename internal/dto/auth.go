package dto

import "time"

type RegisterRequestDTO struct {
	Email       string `json:"email" example:"ann@example.com"`
	Password    string `json:"password" example:"password123"`
	DisplayName string `json:"displayName,omitempty" example:"Ann"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" example:"ann@example.com"`
	Password string `json:"password" example:"password123"`
}

type AuthResponseDTO struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty" example:"01900000-0000-7000-8000-000000000000"`
}

type AccountResponseDTO struct {
	ID            string    `json:"uid"`
	Email         string    `json:"email" example:"ann@example.com"`
	DisplayName   string    `json:"displayName,omitempty"`
	Balance       string    `json:"balance" example:"125.50"`
	WalletAddress string    `json:"walletAddress,omitempty"`
	Verified      bool      `json:"isVerified"`
	AccountType   string    `json:"accountType" example:"PERSONAL"`
	CreatedAt     time.Time `json:"createdAt"`
}
