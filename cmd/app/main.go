// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"intake-review/internal/config"
	"intake-review/internal/domain/ports/adapter"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/db/memory"
	pg "intake-review/internal/infra/db/postgres"
	"intake-review/internal/infra/identity"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/metrics"
	red "intake-review/internal/infra/redis"
	"intake-review/internal/infra/sched"
	"intake-review/internal/infra/security"
	"intake-review/internal/infra/web"
	"intake-review/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

type stores struct {
	users   repository.UserProfileRepository
	codes   repository.ReferenceCodeRepository
	apps    repository.ApplicationRepository
	ids     repository.IdentityRepository
	tm      repository.TransactionManager
	revoker adapter.SessionRevoker
	limiter adapter.RateLimiter
	pool    sched.PoolStatsFunc
	close   func()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, cfg.Storage.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("storage")
	}
	defer st.close()

	// ---- Use cases ----
	ids := identity.NewProvider(st.ids, bcrypt.DefaultCost, logger)
	access := usecase.NewAccessEngine(st.codes, st.apps, st.users, logger)
	boot := usecase.NewBootstrapGuard(st.users, ids, st.tm, cfg.Bootstrap.DefaultAdminEmail, cfg.Bootstrap.DefaultAdminName, logger)
	sessions := usecase.NewSessionUseCase(ids, st.revoker, st.users, boot, logger)
	profiles := usecase.NewProfileUseCase(st.users, ids, access, boot, logger)
	codes := usecase.NewRefCodeUseCase(st.codes, st.users, access, logger)
	apps := usecase.NewApplicationUseCase(st.apps, access, logger, cfg.Runtime.Dev)

	// ---- Bootstrap ----
	if _, err := boot.EnsureDefaultAdminExists(ctx); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap default admin")
	}
	if cfg.Bootstrap.DefaultAdminPassword != "" {
		if err := boot.ProvisionIdentity(ctx, cfg.Bootstrap.DefaultAdminPassword); err != nil {
			logger.Fatal().Err(err).Msg("provision default admin identity")
		}
	}

	// ---- HTTP ----
	srv := web.NewServer(sessions, profiles, codes, apps, web.NewAuthManager(cfg.Auth), st.limiter, cfg, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := sched.NewStatsWorker(cfg.Stats.Interval, apps, st.pool, logger).Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("exited with error")
		os.Exit(1)
	}
	logger.Info().Msg("bye")
}

func openStores(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*stores, error) {
	if cfg.Storage.Driver == "memory" {
		logger.Warn().Msg("memory storage: data is lost on exit")
		return &stores{
			users:   memory.NewUserProfileRepo(),
			codes:   memory.NewReferenceCodeRepo(),
			apps:    memory.NewApplicationRepo(),
			ids:     memory.NewIdentityRepo(),
			tm:      memory.TxManager{},
			revoker: memory.NewSessionDenylist(),
			limiter: memory.NewRateLimiter(),
			close:   func() {},
		}, nil
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// ---- Encryption ----
	cipher, err := security.NewEncryptionServiceWithContext(cfg.Security.EncryptionKey, "applications.phone")
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}

	return &stores{
		users:   pg.NewProfileRepoCacheDecorator(pg.NewUserProfileRepo(pool), redisClient, cfg.Redis.TTL, logger),
		codes:   pg.NewReferenceCodeRepo(pool),
		apps:    pg.NewApplicationRepo(pool, cipher),
		ids:     pg.NewIdentityRepo(pool),
		tm:      pg.NewTxManager(pool),
		revoker: red.NewSessionDenylist(redisClient),
		limiter: red.NewRateLimiter(redisClient),
		pool:    func() (int32, int32, int32) { return pg.PoolStats(pool) },
		close: func() {
			_ = redisClient.Close()
			pool.Close()
		},
	}, nil
}
