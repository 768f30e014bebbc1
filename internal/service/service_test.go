package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GlebRadaev/stableflow/internal/chain"
	"github.com/GlebRadaev/stableflow/internal/config"
	"github.com/GlebRadaev/stableflow/internal/reconcile"
	"github.com/GlebRadaev/stableflow/internal/store/memstore"
	"github.com/GlebRadaev/stableflow/internal/syncer"
	"github.com/GlebRadaev/stableflow/pkg/auth"
	"github.com/GlebRadaev/stableflow/pkg/blob"
	"github.com/GlebRadaev/stableflow/pkg/broker"
	"github.com/GlebRadaev/stableflow/pkg/clients"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{SolanaDevnet: true, RefreshSchedule: "@every 1m", RefreshWorkers: 1, AppLabel: "StableFlow"}
	s := syncer.New(memstore.New())
	c := chain.New(cfg, clients.NewHTTPClient(cfg.RPCTimeout))
	wallets := reconcile.NewRegistry(cfg, c, s)
	defer wallets.Close()

	services := New(cfg, Deps{
		Syncer:    s,
		Chain:     c,
		Wallets:   wallets,
		Blob:      blob.NewLocal(t.TempDir(), "http://localhost:8080"),
		Publisher: broker.Nop{},
		JWT:       auth.NewJWTService("secret"),
	})

	assert.NotNil(t, services.AuthService)
	assert.NotNil(t, services.ClaimService)
	assert.NotNil(t, services.AccountService)
}
