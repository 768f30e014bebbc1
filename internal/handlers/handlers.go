package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/stableflow/docs"
	authhandlers "github.com/GlebRadaev/stableflow/internal/handlers/auth"
	claimshandlers "github.com/GlebRadaev/stableflow/internal/handlers/claims"
	wallethandlers "github.com/GlebRadaev/stableflow/internal/handlers/wallet"
	"github.com/GlebRadaev/stableflow/internal/service"
	"github.com/GlebRadaev/stableflow/pkg/auth"
)

const requestTimeout = 60 * time.Second

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers
type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type ClaimsHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
	Cancel(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
	UploadReceipt(w http.ResponseWriter, r *http.Request)
}

type WalletHandler interface {
	GetAccount(w http.ResponseWriter, r *http.Request)
	LinkWallet(w http.ResponseWriter, r *http.Request)
	UnlinkWallet(w http.ResponseWriter, r *http.Request)
	GetBalance(w http.ResponseWriter, r *http.Request)
	Refresh(w http.ResponseWriter, r *http.Request)
	PaymentLink(w http.ResponseWriter, r *http.Request)
	GetTransaction(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler   AuthHandler
	ClaimsHandler ClaimsHandler
	WalletHandler WalletHandler

	jwtService  auth.JWTServiceInterface
	receiptsDir string
}

// New builds the API handlers. receiptsDir is served read-only under /receipts.
func New(s *service.Services, jwtService auth.JWTServiceInterface, receiptsDir string) *Handlers {
	return &Handlers{
		AuthHandler:   authhandlers.New(s.AuthService),
		ClaimsHandler: claimshandlers.New(s.ClaimService),
		WalletHandler: wallethandlers.New(s.AccountService),
		jwtService:    jwtService,
		receiptsDir:   receiptsDir,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"https://*", "http://*"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	if h.receiptsDir != "" {
		r.Handle("/receipts/*", http.StripPrefix("/receipts/", http.FileServer(http.Dir(h.receiptsDir))))
	}

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.AuthHandler.Register)
		r.Post("/login", h.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(h.jwtService))

			r.Get("/account", h.WalletHandler.GetAccount)
			r.Route("/wallet", func(r chi.Router) {
				r.Post("/", h.WalletHandler.LinkWallet)
				r.Delete("/", h.WalletHandler.UnlinkWallet)
				r.Get("/balance", h.WalletHandler.GetBalance)
				r.Post("/refresh", h.WalletHandler.Refresh)
				r.Post("/payment-link", h.WalletHandler.PaymentLink)
			})
			r.Get("/transactions/{signature}", h.WalletHandler.GetTransaction)

			r.Route("/claims", func(r chi.Router) {
				// the stream outlives any request timeout
				r.Get("/stream", h.ClaimsHandler.Stream)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Timeout(requestTimeout))
					r.Post("/", h.ClaimsHandler.Submit)
					r.Get("/", h.ClaimsHandler.List)
					r.Get("/stats", h.ClaimsHandler.Stats)
					r.Get("/{id}", h.ClaimsHandler.Get)
					r.Post("/{id}/cancel", h.ClaimsHandler.Cancel)
					r.Post("/{id}/review", h.ClaimsHandler.Review)
					r.Post("/{id}/paid", h.ClaimsHandler.MarkPaid)
				})
			})
			r.With(middleware.Timeout(requestTimeout)).Post("/receipts", h.ClaimsHandler.UploadReceipt)
		})
	})

	return r
}
