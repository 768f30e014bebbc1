package wallet

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/dto"
	"github.com/GlebRadaev/stableflow/internal/handlers/httperr"
	"github.com/GlebRadaev/stableflow/internal/service/accountservice"
	"github.com/GlebRadaev/stableflow/pkg/auth"
	"github.com/GlebRadaev/stableflow/pkg/utils"
)

//go:generate mockgen -source=wallet.go -destination=mock_wallet.go -package=wallet
type Service interface {
	GetAccount(ctx context.Context, accountID string) (domain.UserAccount, error)
	LinkWallet(ctx context.Context, accountID, address string) (accountservice.WalletState, error)
	UnlinkWallet(ctx context.Context, accountID string) error
	Wallet(ctx context.Context, accountID string) (accountservice.WalletState, error)
	Refresh(ctx context.Context, accountID string) (accountservice.WalletState, error)
	PaymentLink(recipient string, amount decimal.Decimal, memo string) (string, error)
	TransactionStatus(ctx context.Context, signature string) (accountservice.TxDetails, error)
}

type WalletHandler struct {
	accountService Service
}

func New(accountService Service) *WalletHandler {
	return &WalletHandler{
		accountService: accountService,
	}
}

func toWalletDTO(s accountservice.WalletState) dto.WalletResponseDTO {
	resp := dto.WalletResponseDTO{
		Address:          s.Address,
		FormattedAddress: s.FormattedAddress,
		SolBalance:       s.Balances.SolBalance.String(),
		USDCBalance:      s.Balances.USDCBalance.String(),
		FetchedAt:        s.Balances.FetchedAt,
		Loading:          s.Loading,
	}
	if s.Err != nil {
		resp.Error = httperr.Message(s.Err)
	}
	return resp
}

// GetAccount godoc
//
//	@Summary	Get own account
//	@Tags		Account
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	dto.AccountResponseDTO
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	404	{object}	utils.Response	"Account not found"
//	@Router		/api/user/account [get]
func (h *WalletHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	acc, err := h.accountService.GetAccount(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.AccountResponseDTO{
		ID:            acc.ID,
		Email:         acc.Email,
		DisplayName:   acc.DisplayName,
		Balance:       acc.Balance.StringFixed(2),
		WalletAddress: acc.WalletAddress,
		Verified:      acc.Verified,
		AccountType:   string(acc.AccountType),
		CreatedAt:     acc.CreatedAt,
	})
}

// LinkWallet godoc
//
//	@Summary		Link a wallet
//	@Description	Makes the address the account's active wallet and fetches its balances
//	@Tags			Wallet
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.LinkWalletRequestDTO	true	"Wallet"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.WalletResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		422	{object}	utils.Response	"Invalid wallet address"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/wallet [post]
func (h *WalletHandler) LinkWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req dto.LinkWalletRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	state, err := h.accountService.LinkWallet(r.Context(), userID, req.Address)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWalletDTO(state))
}

// UnlinkWallet godoc
//
//	@Summary	Unlink the wallet
//	@Tags		Wallet
//	@Security	BearerAuth
//	@Success	204
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/user/wallet [delete]
func (h *WalletHandler) UnlinkWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.accountService.UnlinkWallet(r.Context(), userID); err != nil {
		httperr.Respond(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance godoc
//
//	@Summary		Get wallet balances
//	@Description	Last published SOL and USDC balances of the linked wallet
//	@Tags			Wallet
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	dto.WalletResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"No wallet linked"
//	@Router			/api/user/wallet/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	state, err := h.accountService.Wallet(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWalletDTO(state))
}

// Refresh godoc
//
//	@Summary	Refresh wallet balances
//	@Tags		Wallet
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	dto.WalletResponseDTO
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	404	{object}	utils.Response	"No wallet linked"
//	@Failure	502	{object}	utils.Response	"Blockchain node unavailable"
//	@Router		/api/user/wallet/refresh [post]
func (h *WalletHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	state, err := h.accountService.Refresh(r.Context(), userID)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toWalletDTO(state))
}

// PaymentLink godoc
//
//	@Summary		Build a payment link
//	@Description	Returns a solana: transfer request URL for an external wallet app
//	@Tags			Wallet
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.PaymentLinkRequestDTO	true	"Payment"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.PaymentLinkResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		422	{object}	utils.Response	"Invalid recipient or amount"
//	@Router			/api/user/wallet/payment-link [post]
func (h *WalletHandler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentLinkRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Amount must be a decimal number")
		return
	}
	link, err := h.accountService.PaymentLink(req.Recipient, amount, req.Memo)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.PaymentLinkResponseDTO{URL: link})
}

// GetTransaction godoc
//
//	@Summary	Transaction status
//	@Tags		Wallet
//	@Produce	json
//	@Param		signature	path	string	true	"Transaction signature"
//	@Security	BearerAuth
//	@Success	200	{object}	dto.TransactionResponseDTO
//	@Failure	502	{object}	utils.Response	"Blockchain node unavailable"
//	@Router		/api/user/transactions/{signature} [get]
func (h *WalletHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	details, err := h.accountService.TransactionStatus(r.Context(), chi.URLParam(r, "signature"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.TransactionResponseDTO{
		Signature:    details.Signature,
		Status:       details.Status.State.String(),
		Confirmation: details.Status.Raw,
		Slot:         details.Slot,
		BlockTime:    details.BlockTime,
		Failed:       details.Failed,
		ExplorerURL:  details.ExplorerURL,
		SolscanURL:   details.SolscanURL,
	})
}
