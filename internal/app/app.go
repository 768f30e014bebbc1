package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/stableflow/internal/chain"
	"github.com/GlebRadaev/stableflow/internal/config"
	"github.com/GlebRadaev/stableflow/internal/handlers"
	"github.com/GlebRadaev/stableflow/internal/pg"
	"github.com/GlebRadaev/stableflow/internal/reconcile"
	"github.com/GlebRadaev/stableflow/internal/service"
	"github.com/GlebRadaev/stableflow/internal/store"
	"github.com/GlebRadaev/stableflow/internal/store/memstore"
	"github.com/GlebRadaev/stableflow/internal/store/pgstore"
	"github.com/GlebRadaev/stableflow/internal/syncer"
	"github.com/GlebRadaev/stableflow/pkg/auth"
	"github.com/GlebRadaev/stableflow/pkg/blob"
	"github.com/GlebRadaev/stableflow/pkg/broker"
	"github.com/GlebRadaev/stableflow/pkg/clients"
	"github.com/GlebRadaev/stableflow/pkg/logger"
)

const claimsExchange = "stableflow.claims"

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type closableStore interface {
	store.Store
	Close()
}

type Application struct {
	cfg       *config.Config
	api       *handlers.Handlers
	srv       *service.Services
	store     closableStore
	sync      *syncer.Syncer
	wallets   *reconcile.Registry
	publisher broker.Publisher
	pool      *pgxpool.Pool

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg := config.New()

	err := logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}
	a.cfg = cfg

	if err := a.initStore(ctx); err != nil {
		return err
	}
	a.sync = syncer.New(a.store)

	rpc := chain.New(cfg, clients.NewHTTPClient(cfg.RPCTimeout))
	a.wallets = reconcile.NewRegistry(cfg, rpc, a.sync)
	if err := a.wallets.Start(ctx); err != nil {
		zap.L().Error("reconciliation schedule failed: ", zap.Error(err))
		return fmt.Errorf("can't schedule reconciliation: %w", err)
	}

	a.publisher = a.initPublisher()

	receipts := blob.NewLocal(cfg.BlobDir, cfg.BlobBaseURL)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	a.srv = service.New(cfg, service.Deps{
		Syncer:    a.sync,
		Chain:     rpc,
		Wallets:   a.wallets,
		Blob:      receipts,
		Publisher: a.publisher,
		JWT:       jwtService,
	})
	a.api = handlers.New(a.srv, jwtService, receipts.Root())

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}
	a.startShutdownWatcher(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully",
		zap.Bool("devnet", rpc.Devnet()), zap.Bool("postgres", a.pool != nil))
	return nil
}

// initStore picks PostgreSQL when a DSN is configured and the in-memory tree otherwise.
func (a *Application) initStore(ctx context.Context) error {
	if a.cfg.Database == "" {
		zap.L().Warn("no database configured, using in-memory store")
		a.store = memstore.New()
		return nil
	}

	pool, err := getPgxpool(ctx, a.cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return fmt.Errorf("can't build pgx pool: %w", err)
	}
	if err := pg.RunMigrations(pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		pool.Close()
		return fmt.Errorf("can't run migrations: %w", err)
	}

	s := pgstore.New(pg.New(pool), pg.NewTXManager(pool), pg.NewListener(pool))
	s.Start(ctx)
	a.pool = pool
	a.store = s
	return nil
}

func (a *Application) initPublisher() broker.Publisher {
	if a.cfg.AMQPURL == "" {
		return broker.Nop{}
	}
	producer, err := broker.NewProducer(a.cfg.AMQPURL, claimsExchange)
	if err != nil {
		// events are best-effort; the API runs without them
		zap.L().Warn("claim events disabled", zap.Error(err))
		return broker.Nop{}
	}
	return producer
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sCtx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// startShutdownWatcher releases subscriptions, the scheduler and connections once ctx is done.
func (a *Application) startShutdownWatcher(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		a.wallets.Close()
		a.sync.Close()
		a.store.Close()
		a.publisher.Close()
		if a.pool != nil {
			a.pool.Close()
		}
		zap.L().Info("background components stopped")
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	return appErr
}
