package service

import (
	"github.com/GlebRadaev/stableflow/internal/chain"
	"github.com/GlebRadaev/stableflow/internal/config"
	"github.com/GlebRadaev/stableflow/internal/handlers/auth"
	"github.com/GlebRadaev/stableflow/internal/handlers/claims"
	"github.com/GlebRadaev/stableflow/internal/handlers/wallet"
	"github.com/GlebRadaev/stableflow/internal/reconcile"
	"github.com/GlebRadaev/stableflow/internal/service/accountservice"
	"github.com/GlebRadaev/stableflow/internal/service/authservice"
	"github.com/GlebRadaev/stableflow/internal/service/claimservice"
	"github.com/GlebRadaev/stableflow/internal/syncer"
	"github.com/GlebRadaev/stableflow/pkg/blob"
	"github.com/GlebRadaev/stableflow/pkg/broker"

	pkgauth "github.com/GlebRadaev/stableflow/pkg/auth"
)

type Services struct {
	AuthService    auth.Service
	ClaimService   claims.Service
	AccountService wallet.Service
}

// Deps are the long-lived components the services are built on.
type Deps struct {
	Syncer    *syncer.Syncer
	Chain     *chain.Client
	Wallets   *reconcile.Registry
	Blob      *blob.LocalStore
	Publisher broker.Publisher
	JWT       pkgauth.JWTServiceInterface
}

func New(cfg *config.Config, d Deps) *Services {
	return &Services{
		AuthService:    authservice.New(d.Syncer, &pkgauth.HashService{}, d.JWT, cfg.TokenTTL),
		ClaimService:   claimservice.New(d.Syncer, d.Chain, d.Blob, d.Publisher),
		AccountService: accountservice.New(d.Syncer, d.Chain, d.Wallets, cfg.AppLabel),
	}
}
