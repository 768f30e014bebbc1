package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/stableflow/internal/domain"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Validation", domain.NewValidationError("title", "Title must be at least 3 characters"), http.StatusUnprocessableEntity},
		{"Address", fmt.Errorf("%w: %q", domain.ErrInvalidAddress, "x"), http.StatusUnprocessableEntity},
		{"Not authenticated", domain.ErrNotAuthenticated, http.StatusUnauthorized},
		{"Not found", fmt.Errorf("claim c1: %w", domain.ErrNotFound), http.StatusNotFound},
		{"Wallet not set", fmt.Errorf("%w: %w", domain.ErrInvalidState, domain.ErrWalletNotSet), http.StatusNotFound},
		{"Transition", domain.StatusPaid.TransitionTo(domain.StatusCancelled), http.StatusConflict},
		{"Network", &domain.NetworkError{Op: "getBalance", Err: errors.New("refused")}, http.StatusBadGateway},
		{"RPC", &domain.RPCError{Code: -32602, Message: "invalid params"}, http.StatusBadGateway},
		{"Write", &domain.WriteError{Path: "expenses/c1", Err: errors.New("down")}, http.StatusInternalServerError},
		{"Unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestRespond(t *testing.T) {
	rec := httptest.NewRecorder()
	Respond(rec, domain.NewValidationError("amount", "Amount must be greater than 0"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"message":"Amount must be greater than 0"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Respond(rec, errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, rec.Body.String())
}
