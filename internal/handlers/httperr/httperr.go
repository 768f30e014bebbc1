// Package httperr maps domain errors onto HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/pkg/utils"
)

func Status(err error) int {
	var (
		validationErr *domain.ValidationError
		networkErr    *domain.NetworkError
		rpcErr        *domain.RPCError
	)
	switch {
	case errors.As(err, &validationErr), errors.Is(err, domain.ErrInvalidAddress):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrWalletNotSet):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrPaymentNotConfirmed):
		return http.StatusConflict
	case errors.As(err, &networkErr), errors.As(err, &rpcErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message is the client-facing text for err. Internal failures are not echoed.
func Message(err error) string {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, domain.ErrInvalidAddress):
		return "Invalid wallet address"
	case errors.Is(err, domain.ErrWalletNotSet):
		return "No wallet linked"
	case errors.Is(err, domain.ErrPaymentNotConfirmed):
		return "Payment transaction is not confirmed"
	}

	switch Status(err) {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return err.Error()
	case http.StatusBadGateway:
		return "Blockchain node unavailable"
	default:
		return "Internal server error"
	}
}

func Respond(w http.ResponseWriter, err error) {
	code := Status(err)
	if code >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Int("status", code), zap.Error(err))
	}
	utils.RespondWithError(w, code, Message(err))
}
