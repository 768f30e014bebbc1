package claims

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/dto"
	"github.com/GlebRadaev/stableflow/internal/handlers/httperr"
	"github.com/GlebRadaev/stableflow/internal/syncer"
	"github.com/GlebRadaev/stableflow/pkg/auth"
	"github.com/GlebRadaev/stableflow/pkg/utils"
)

// MaxReceiptSize bounds an uploaded receipt image.
const MaxReceiptSize = 10 << 20

//go:generate mockgen -source=claims.go -destination=mock_claims.go -package=claims
type Service interface {
	Submit(ctx context.Context, ownerID string, in domain.ClaimInput) (domain.ExpenseClaim, error)
	List(ctx context.Context, ownerID string) ([]domain.ExpenseClaim, error)
	Get(ctx context.Context, ownerID, id string) (domain.ExpenseClaim, error)
	Stats(ctx context.Context, ownerID string) (domain.ExpenseStats, error)
	Watch(ctx context.Context, ownerID string, onClaims func([]domain.ExpenseClaim), onError func(error)) (*syncer.Handle, error)
	Cancel(ctx context.Context, ownerID, id string) (domain.ExpenseClaim, error)
	Review(ctx context.Context, reviewerID, id string, decision domain.Status, reason string) (domain.ExpenseClaim, error)
	MarkPaid(ctx context.Context, actorID, id, signature, payerAddress string) (domain.ExpenseClaim, error)
	UploadReceipt(ctx context.Context, ownerID, claimID string, r io.Reader, size int64) (string, error)
}

type ClaimsHandler struct {
	claimService Service
}

func New(claimService Service) *ClaimsHandler {
	return &ClaimsHandler{
		claimService: claimService,
	}
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}

func toLocationDTO(l *domain.Location) *dto.LocationDTO {
	if l == nil {
		return nil
	}
	return &dto.LocationDTO{Latitude: l.Latitude, Longitude: l.Longitude, Address: l.Address}
}

func toClaimDTO(c domain.ExpenseClaim) dto.ClaimResponseDTO {
	return dto.ClaimResponseDTO{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		Amount:          c.Amount.StringFixed(2),
		Currency:        c.Currency,
		Category:        string(c.Category),
		CategoryLabel:   c.Category.Label(),
		Status:          string(c.Status),
		StatusLabel:     c.Status.Label(),
		ReceiptURL:      c.ReceiptURL,
		SubmittedAt:     c.SubmittedAt,
		ProcessedAt:     c.ProcessedAt,
		ApprovedBy:      c.ApprovedBy,
		RejectionReason: c.RejectionReason,
		Notes:           c.Notes,
		TxSignature:     c.TxSignature,
		TxExplorerURL:   c.TxExplorerURL,
		PaidAt:          c.PaidAt,
		PayerAddress:    c.PayerAddress,
		Location:        toLocationDTO(c.Location),
	}
}

func toClaimDTOs(claims []domain.ExpenseClaim) []dto.ClaimResponseDTO {
	response := make([]dto.ClaimResponseDTO, 0, len(claims))
	for _, c := range claims {
		response = append(response, toClaimDTO(c))
	}
	return response
}

func toBucketDTO(b domain.Bucket) dto.BucketDTO {
	return dto.BucketDTO{Count: b.Count, Amount: b.Amount.StringFixed(2)}
}

// Submit godoc
//
//	@Summary		Submit an expense claim
//	@Description	File a new USDC expense claim. It starts in PENDING.
//	@Tags			Claims
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.SubmitClaimRequestDTO	true	"Claim"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.ClaimResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		422	{object}	utils.Response	"Validation failed"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/claims [post]
func (h *ClaimsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}

	var req dto.SubmitClaimRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, "Amount must be a decimal number")
		return
	}

	in := domain.ClaimInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      amount,
		Category:    domain.Category(req.Category),
		ReceiptURL:  req.ReceiptURL,
		Notes:       req.Notes,
	}
	if req.Location != nil {
		in.Location = &domain.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude, Address: req.Location.Address}
	}

	claim, err := h.claimService.Submit(r.Context(), owner, in)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, toClaimDTO(claim))
}

// List godoc
//
//	@Summary		List own claims
//	@Description	Claims of the authorized user, newest first
//	@Tags			Claims
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		dto.ClaimResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/claims [get]
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}
	claims, err := h.claimService.List(r.Context(), owner)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toClaimDTOs(claims))
}

// Get godoc
//
//	@Summary	Get a claim
//	@Tags		Claims
//	@Produce	json
//	@Param		id	path	string	true	"Claim id"
//	@Security	BearerAuth
//	@Success	200	{object}	dto.ClaimResponseDTO
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	404	{object}	utils.Response	"Claim not found"
//	@Router		/api/user/claims/{id} [get]
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}
	claim, err := h.claimService.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toClaimDTO(claim))
}

// Stats godoc
//
//	@Summary		Claim statistics
//	@Description	Counts and totals per status bucket. UNDER_REVIEW counts as pending.
//	@Tags			Claims
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	dto.ClaimStatsResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/user/claims/stats [get]
func (h *ClaimsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}
	stats, err := h.claimService.Stats(r.Context(), owner)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.ClaimStatsResponseDTO{
		Pending:     toBucketDTO(stats.Pending),
		Approved:    toBucketDTO(stats.Approved),
		Paid:        toBucketDTO(stats.Paid),
		Rejected:    toBucketDTO(stats.Rejected),
		TotalAmount: stats.TotalAmount.StringFixed(2),
	})
}

// Stream godoc
//
//	@Summary		Stream own claims
//	@Description	Server-sent events. Every event carries the full claim list; an "error" event ends the stream.
//	@Tags			Claims
//	@Produce		text/event-stream
//	@Security		BearerAuth
//	@Success		200	{array}		dto.ClaimResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Router			/api/user/claims/stream [get]
func (h *ClaimsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// only the latest snapshot matters to a slow reader
	updates := make(chan []domain.ExpenseClaim, 1)
	failures := make(chan error, 1)
	handle, err := h.claimService.Watch(r.Context(), owner,
		func(claims []domain.ExpenseClaim) {
			select {
			case <-updates:
			default:
			}
			updates <- claims
		},
		func(err error) {
			select {
			case failures <- err:
			default:
			}
		})
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	defer handle.Stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case err := <-failures:
			zap.L().Warn("claim stream failed", zap.String("owner", owner), zap.Error(err))
			writeEvent(w, "error", utils.Response{Message: "Subscription failed"})
			flusher.Flush()
			return
		case claims := <-updates:
			if err := writeEvent(w, "claims", toClaimDTOs(claims)); err != nil {
				return
			}
			flusher.Flush()
		case <-handle.Done():
			return
		}
	}
}

func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "event: "+event+"\ndata: "+string(data)+"\n\n")
	return err
}

// Cancel godoc
//
//	@Summary		Cancel a claim
//	@Description	Owner-only. Allowed while the claim is PENDING or UNDER_REVIEW.
//	@Tags			Claims
//	@Produce		json
//	@Param			id	path	string	true	"Claim id"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.ClaimResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Claim not found"
//	@Failure		409	{object}	utils.Response	"Claim can no longer be cancelled"
//	@Router			/api/user/claims/{id}/cancel [post]
func (h *ClaimsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}
	claim, err := h.claimService.Cancel(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toClaimDTO(claim))
}

// Review godoc
//
//	@Summary		Review a claim
//	@Description	Move a claim to UNDER_REVIEW, APPROVED or REJECTED. Rejections need a reason.
//	@Tags			Claims
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string						true	"Claim id"
//	@Param			request	body	dto.ReviewClaimRequestDTO	true	"Decision"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.ClaimResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		404	{object}	utils.Response	"Claim not found"
//	@Failure		409	{object}	utils.Response	"Transition not allowed"
//	@Failure		422	{object}	utils.Response	"Invalid decision"
//	@Router			/api/user/claims/{id}/review [post]
func (h *ClaimsHandler) Review(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.ReviewClaimRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	claim, err := h.claimService.Review(r.Context(), reviewer, chi.URLParam(r, "id"), domain.Status(req.Status), req.Reason)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toClaimDTO(claim))
}

// MarkPaid godoc
//
//	@Summary		Record a claim payment
//	@Description	Marks an APPROVED claim PAID once its transaction is confirmed on chain.
//	@Tags			Claims
//	@Accept			json
//	@Produce		json
//	@Param			id		path	string					true	"Claim id"
//	@Param			request	body	dto.MarkPaidRequestDTO	true	"Payment"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.ClaimResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		409	{object}	utils.Response	"Not approved or not confirmed"
//	@Failure		422	{object}	utils.Response	"Invalid payer address"
//	@Failure		502	{object}	utils.Response	"Blockchain node unavailable"
//	@Router			/api/user/claims/{id}/paid [post]
func (h *ClaimsHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	actor, ok := userID(w, r)
	if !ok {
		return
	}
	var req dto.MarkPaidRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	claim, err := h.claimService.MarkPaid(r.Context(), actor, chi.URLParam(r, "id"), req.Signature, req.PayerAddress)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toClaimDTO(claim))
}

// UploadReceipt godoc
//
//	@Summary		Upload a receipt image
//	@Description	Raw JPEG body. When claimId is given the URL is attached to that claim.
//	@Tags			Claims
//	@Accept			image/jpeg
//	@Produce		json
//	@Param			claimId	query	string	false	"Claim id"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.ReceiptResponseDTO
//	@Failure		400	{object}	utils.Response	"Empty body"
//	@Failure		404	{object}	utils.Response	"Claim not found"
//	@Failure		413	{object}	utils.Response	"Receipt too large"
//	@Router			/api/user/receipts [post]
func (h *ClaimsHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	owner, ok := userID(w, r)
	if !ok {
		return
	}
	if r.ContentLength == 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Receipt body is required")
		return
	}
	if r.ContentLength > MaxReceiptSize {
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, "Receipt too large")
		return
	}

	body := http.MaxBytesReader(w, r.Body, MaxReceiptSize)
	url, err := h.claimService.UploadReceipt(r.Context(), owner, r.URL.Query().Get("claimId"), body, r.ContentLength)
	if err != nil {
		httperr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.ReceiptResponseDTO{URL: url})
}
