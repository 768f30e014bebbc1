package claims

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/stableflow/internal/domain"
	"github.com/GlebRadaev/stableflow/internal/dto"
	"github.com/GlebRadaev/stableflow/internal/store/memstore"
	"github.com/GlebRadaev/stableflow/internal/syncer"
	"github.com/GlebRadaev/stableflow/pkg/auth"
	"github.com/GlebRadaev/stableflow/pkg/utils"
)

func NewMock(t *testing.T) (*ClaimsHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service), service
}

func withUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), auth.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func router(h *ClaimsHandler, userID string) chi.Router {
	r := chi.NewRouter()
	r.Use(withUser(userID))
	r.Post("/api/user/claims", h.Submit)
	r.Get("/api/user/claims", h.List)
	r.Get("/api/user/claims/stats", h.Stats)
	r.Get("/api/user/claims/stream", h.Stream)
	r.Get("/api/user/claims/{id}", h.Get)
	r.Post("/api/user/claims/{id}/cancel", h.Cancel)
	r.Post("/api/user/claims/{id}/review", h.Review)
	r.Post("/api/user/claims/{id}/paid", h.MarkPaid)
	r.Post("/api/user/receipts", h.UploadReceipt)
	return r
}

func do(t *testing.T, r http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp utils.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Message
}

func claim(id string, status domain.Status) domain.ExpenseClaim {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return domain.ExpenseClaim{
		ID:          id,
		UserID:      "u1",
		Title:       "Taxi to airport",
		Description: "Client meeting in Berlin",
		Amount:      decimal.RequireFromString("42.5"),
		Currency:    domain.Currency,
		Category:    domain.CategoryTravel,
		Status:      status,
		SubmittedAt: &at,
	}
}

func TestSubmitHandler(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		prepareMock   func(s *MockService)
		expectedCode  int
		expectedError string
	}{
		{
			name: "Successful submission",
			body: `{"title":"Taxi to airport","description":"Client meeting in Berlin","amount":"42.50","category":"TRAVEL","location":{"latitude":52.5,"longitude":13.4}}`,
			prepareMock: func(s *MockService) {
				s.EXPECT().Submit(gomock.Any(), "u1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, in domain.ClaimInput) (domain.ExpenseClaim, error) {
					assert.True(t, in.Amount.Equal(decimal.RequireFromString("42.5")))
					assert.Equal(t, domain.CategoryTravel, in.Category)
					require.NotNil(t, in.Location)
					assert.Equal(t, 52.5, in.Location.Latitude)
					return claim("c1", domain.StatusPending), nil
				})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Invalid request body",
			body:          `{invalid json`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name:          "Amount is not a number",
			body:          `{"title":"Taxi","amount":"lots"}`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusUnprocessableEntity,
			expectedError: "Amount must be a decimal number",
		},
		{
			name: "Validation failure",
			body: `{"title":"Ta","description":"Client meeting in Berlin","amount":"1","category":"TRAVEL"}`,
			prepareMock: func(s *MockService) {
				s.EXPECT().Submit(gomock.Any(), "u1", gomock.Any()).
					Return(domain.ExpenseClaim{}, domain.NewValidationError("title", "Title must be at least 3 characters"))
			},
			expectedCode:  http.StatusUnprocessableEntity,
			expectedError: "Title must be at least 3 characters",
		},
		{
			name: "Store failure",
			body: `{"title":"Taxi to airport","description":"Client meeting in Berlin","amount":"1","category":"TRAVEL"}`,
			prepareMock: func(s *MockService) {
				s.EXPECT().Submit(gomock.Any(), "u1", gomock.Any()).
					Return(domain.ExpenseClaim{}, &domain.WriteError{Path: "expenses/c1", Err: errors.New("down")})
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, service := NewMock(t)
			tt.prepareMock(service)

			rr := do(t, router(h, "u1"), "POST", "/api/user/claims", tt.body)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, message(t, rr))
				return
			}
			var resp dto.ClaimResponseDTO
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, "c1", resp.ID)
			assert.Equal(t, "42.50", resp.Amount)
			assert.Equal(t, "Pending", resp.StatusLabel)
		})
	}
}

func TestListAndStatsHandlers(t *testing.T) {
	h, service := NewMock(t)
	r := router(h, "u1")

	service.EXPECT().List(gomock.Any(), "u1").Return([]domain.ExpenseClaim{claim("c2", domain.StatusPaid), claim("c1", domain.StatusPending)}, nil)
	rr := do(t, r, "GET", "/api/user/claims", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []dto.ClaimResponseDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "c2", list[0].ID)

	service.EXPECT().List(gomock.Any(), "u1").Return(nil, nil)
	rr = do(t, r, "GET", "/api/user/claims", "")
	assert.JSONEq(t, `[]`, rr.Body.String())

	service.EXPECT().Stats(gomock.Any(), "u1").Return(domain.ComputeStats([]domain.ExpenseClaim{claim("c1", domain.StatusUnderReview)}), nil)
	rr = do(t, r, "GET", "/api/user/claims/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stats dto.ClaimStatsResponseDTO
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Pending.Count)
	assert.Equal(t, "42.50", stats.TotalAmount)
}

func TestClaimActionHandlers(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		body          string
		prepareMock   func(s *MockService)
		expectedCode  int
		expectedError string
	}{
		{
			name: "Get foreign claim",
			url:  "/api/user/claims/c9",
			prepareMock: func(s *MockService) {
				s.EXPECT().Get(gomock.Any(), "u1", "c9").Return(domain.ExpenseClaim{}, domain.ErrNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: "Not found",
		},
		{
			name: "Cancel pending claim",
			url:  "/api/user/claims/c1/cancel",
			prepareMock: func(s *MockService) {
				s.EXPECT().Cancel(gomock.Any(), "u1", "c1").Return(claim("c1", domain.StatusCancelled), nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Cancel paid claim",
			url:  "/api/user/claims/c1/cancel",
			prepareMock: func(s *MockService) {
				s.EXPECT().Cancel(gomock.Any(), "u1", "c1").Return(domain.ExpenseClaim{}, domain.StatusPaid.TransitionTo(domain.StatusCancelled))
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Reject with reason",
			url:  "/api/user/claims/c1/review",
			body: `{"status":"REJECTED","reason":"No receipt"}`,
			prepareMock: func(s *MockService) {
				s.EXPECT().Review(gomock.Any(), "u1", "c1", domain.StatusRejected, "No receipt").Return(claim("c1", domain.StatusRejected), nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:          "Review with invalid body",
			url:           "/api/user/claims/c1/review",
			body:          `status=APPROVED`,
			prepareMock:   func(*MockService) {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "Invalid request body",
		},
		{
			name: "Mark paid before confirmation",
			url:  "/api/user/claims/c1/paid",
			body: `{"signature":"sig","payerAddress":"So11111111111111111111111111111111111111112"}`,
			prepareMock: func(s *MockService) {
				s.EXPECT().MarkPaid(gomock.Any(), "u1", "c1", "sig", "So11111111111111111111111111111111111111112").
					Return(domain.ExpenseClaim{}, domain.ErrPaymentNotConfirmed)
			},
			expectedCode:  http.StatusConflict,
			expectedError: "Payment transaction is not confirmed",
		},
		{
			name: "Mark paid with node down",
			url:  "/api/user/claims/c1/paid",
			body: `{"signature":"sig","payerAddress":"So11111111111111111111111111111111111111112"}`,
			prepareMock: func(s *MockService) {
				s.EXPECT().MarkPaid(gomock.Any(), "u1", "c1", "sig", gomock.Any()).
					Return(domain.ExpenseClaim{}, &domain.NetworkError{Op: "getSignatureStatuses", Err: errors.New("timeout")})
			},
			expectedCode:  http.StatusBadGateway,
			expectedError: "Blockchain node unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, service := NewMock(t)
			tt.prepareMock(service)

			method := "POST"
			if tt.body == "" && !strings.HasSuffix(tt.url, "/cancel") {
				method = "GET"
			}
			rr := do(t, router(h, "u1"), method, tt.url, tt.body)

			assert.Equal(t, tt.expectedCode, rr.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, message(t, rr))
			}
		})
	}
}

func TestUploadReceiptHandler(t *testing.T) {
	h, service := NewMock(t)
	r := router(h, "u1")

	service.EXPECT().UploadReceipt(gomock.Any(), "u1", "c1", gomock.Any(), int64(4)).Return("http://localhost:8080/receipts/u1/a.jpg", nil)
	rr := do(t, r, "POST", "/api/user/receipts?claimId=c1", "jpeg")
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"url":"http://localhost:8080/receipts/u1/a.jpg"}`, rr.Body.String())

	rr = do(t, r, "POST", "/api/user/receipts", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest("POST", "/api/user/receipts", bytes.NewReader(nil))
	req.ContentLength = MaxReceiptSize + 1
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestUnauthenticated(t *testing.T) {
	h, _ := NewMock(t)
	rr := do(t, router(h, ""), "GET", "/api/user/claims", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestStreamHandler(t *testing.T) {
	h, service := NewMock(t)
	sc := syncer.New(memstore.New())
	t.Cleanup(sc.Close)

	service.EXPECT().Watch(gomock.Any(), "u1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, owner string, onClaims func([]domain.ExpenseClaim), onError func(error)) (*syncer.Handle, error) {
			return sc.SubscribeClaims(ctx, owner, onClaims, onError)
		})

	srv := httptest.NewServer(router(h, "u1"))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/user/claims/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				events <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(events)
	}()

	next := func() []dto.ClaimResponseDTO {
		select {
		case data, ok := <-events:
			require.True(t, ok, "stream closed")
			var claims []dto.ClaimResponseDTO
			require.NoError(t, json.Unmarshal([]byte(data), &claims))
			return claims
		case <-ctx.Done():
			t.Fatal("no event delivered")
			return nil
		}
	}

	assert.Empty(t, next())

	c := claim("", domain.StatusPending)
	_, err = sc.SubmitClaim(context.Background(), c)
	require.NoError(t, err)

	claims := next()
	require.Len(t, claims, 1)
	assert.Equal(t, "PENDING", claims[0].Status)
}
