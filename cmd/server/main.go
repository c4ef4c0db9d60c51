// Copyright 2026 The Shopfloor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopfloor/shopfloor/internal/access"
	"github.com/shopfloor/shopfloor/internal/audit"
	"github.com/shopfloor/shopfloor/internal/authz"
	"github.com/shopfloor/shopfloor/internal/config"
	"github.com/shopfloor/shopfloor/internal/identity"
	"github.com/shopfloor/shopfloor/internal/observability/logger"
	"github.com/shopfloor/shopfloor/internal/observability/metrics"
	"github.com/shopfloor/shopfloor/internal/observability/tracing"
	"github.com/shopfloor/shopfloor/internal/organization"
	"github.com/shopfloor/shopfloor/internal/quote"
	"github.com/shopfloor/shopfloor/internal/session"
	"github.com/shopfloor/shopfloor/internal/store/postgres"
	"github.com/shopfloor/shopfloor/internal/store/redis"
	"github.com/shopfloor/shopfloor/internal/team"
	transportHTTP "github.com/shopfloor/shopfloor/internal/transport/http"
	"github.com/shopfloor/shopfloor/internal/vehicle"
)

func main() {
	// A missing .env is fine; the environment may be set by the platform.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "bootstrap":
			err = runBootstrap(cfg)
		case "migrate":
			err = runMigrate(cfg)
		default:
			err = fmt.Errorf("unknown command %q", os.Args[1])
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting shopfloor", logger.String("version", cfg.Observability.ServiceVersion))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer, continuing without", logger.Error(err))
		tracer = tracing.Noop()
	}
	defer tracer.Shutdown(context.Background())

	meter := metrics.New(metrics.Config{
		Enabled:     cfg.Observability.OTELEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("connected to database")

	sessionRepo, closeSessions, err := newSessionRepository(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeSessions()

	userRepo := postgres.NewUserRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	membershipRepo := postgres.NewMembershipRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	quoteRepo := postgres.NewQuoteRepository(db)

	auditLogger := audit.NewSlogLogger()

	identityService := identity.NewService(
		userRepo,
		newPasswordHasher(cfg),
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
	if err := identity.NewBootstrapService(identityService, auditLogger).Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
	}

	sessionService := session.NewService(sessionRepo, identityService, cfg.Session.Lifetime, cfg.Session.IdleTimeout)
	pointers, err := session.NewPointerSigner([]byte(cfg.ActiveOrg.SigningKey), cfg.ActiveOrg.Lifetime)
	if err != nil {
		return err
	}

	gateOpts := []access.Option{access.WithTracer(tracer), access.WithMetrics(meter)}
	if cfg.Observability.AuditDecisions {
		gateOpts = append(gateOpts, access.WithPublisher(
			access.NewAuditPublisher(logger.NewAuditLogger(slog.Default())),
		))
	}
	gate := access.NewGate(
		sessionService,
		organization.NewMembershipResolver(membershipRepo, authz.NewRoleResolver(roleRepo), pointers),
		gateOpts...,
	)

	organizationService := organization.NewService(orgRepo, membershipRepo, identityService, pointers, auditLogger)
	teamService := team.NewService(membershipRepo, roleRepo, identityService, auditLogger)
	vehicleService := vehicle.NewService(vehicleRepo)
	quoteService := quote.NewService(quoteRepo, vehicleRepo, auditLogger)

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	handler := transportHTTP.NewHandler(
		gate,
		identityService,
		sessionService,
		organizationService,
		teamService,
		vehicleService,
		quoteService,
		auditLogger,
		db,
		transportHTTP.SessionConfig{
			CookieName:     cfg.Session.CookieName,
			CookieDomain:   cfg.Session.CookieDomain,
			CookiePath:     cfg.Session.CookiePath,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
			CookieSameSite: cfg.Session.SameSiteMode(),
			Lifetime:       cfg.Session.Lifetime,
		},
		transportHTTP.ActiveOrgConfig{
			CookieName: cfg.ActiveOrg.CookieName,
			Lifetime:   cfg.ActiveOrg.Lifetime,
		},
	)

	var ui fs.FS
	if cfg.Server.UIDir != "" {
		ui = os.DirFS(cfg.Server.UIDir)
	}

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      transportHTTP.NewRouter(handler, rateLimiter, ui),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := sessionService.CleanupExpired(ctx); err != nil {
					slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", logger.Component("server"), logger.Operation("listen"), logger.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}
	slog.Info("server stopped")
	return nil
}

func openDB(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	db, err := postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newSessionRepository picks the session backend. The returned func releases
// any connection opened for it.
func newSessionRepository(ctx context.Context, cfg *config.Config, db *postgres.DB) (session.Repository, func(), error) {
	if cfg.Session.Store != config.SessionStoreRedis {
		return postgres.NewSessionRepository(db), func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("using redis session store")
	return redis.NewSessionRepository(client), func() { client.Close() }, nil
}

func newPasswordHasher(cfg *config.Config) *identity.PasswordHasher {
	return identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
}

func runBootstrap(cfg *config.Config) error {
	ctx := context.Background()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	auditLogger := audit.NewSlogLogger()
	identityService := identity.NewService(
		postgres.NewUserRepository(db),
		newPasswordHasher(cfg),
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
	return identity.NewBootstrapService(identityService, auditLogger).Bootstrap(ctx)
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("applying initial schema")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	slog.Info("migration successful")
	return nil
}
