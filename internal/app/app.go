// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/powerbill/internal/billing"
	billingpostgres "github.com/bissquit/powerbill/internal/billing/postgres"
	"github.com/bissquit/powerbill/internal/config"
	"github.com/bissquit/powerbill/internal/customers"
	customerspostgres "github.com/bissquit/powerbill/internal/customers/postgres"
	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/identity"
	"github.com/bissquit/powerbill/internal/identity/jwt"
	identitypostgres "github.com/bissquit/powerbill/internal/identity/postgres"
	"github.com/bissquit/powerbill/internal/pkg/ctxlog"
	"github.com/bissquit/powerbill/internal/pkg/httputil"
	"github.com/bissquit/powerbill/internal/pkg/metrics"
	"github.com/bissquit/powerbill/internal/pkg/postgres"
	"github.com/bissquit/powerbill/internal/receipt"
	"github.com/bissquit/powerbill/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	dbMetricsInterval   = 15 * time.Second
	revocationPurgeTick = time.Hour
	loginLimiterTTL     = 10 * time.Minute
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	identity      *identity.Service
	server        *http.Server
	metricsServer *http.Server
	cancel        context.CancelFunc
	background    sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
		cancel: cancel,
	}

	router, err := app.setupRouter(ctx)
	if err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	app.startBackground(ctx)

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.cancel()

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()
	a.background.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) startBackground(ctx context.Context) {
	a.background.Add(2)

	go func() {
		defer a.background.Done()
		metrics.CollectDBPool(ctx, a.db, dbMetricsInterval)
	}()

	go func() {
		defer a.background.Done()
		a.purgeRevokedTokens(ctx)
	}()
}

func (a *App) purgeRevokedTokens(ctx context.Context) {
	ticker := time.NewTicker(revocationPurgeTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := a.identity.PurgeRevoked(ctx)
			if err != nil {
				a.logger.Error("failed to purge revoked tokens", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("purged revoked tokens", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	identityRepo := identitypostgres.NewRepository(a.db)
	jwtAuth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:     a.config.JWT.SecretKey,
		TokenDuration: a.config.JWT.TokenTTL,
		Issuer:        a.config.JWT.Issuer,
	})
	a.identity = identity.NewService(identityRepo, jwtAuth)

	if a.config.Admin.Email != "" {
		if _, err := a.identity.EnsureAdmin(ctx, identity.AdminInput{
			Name:     a.config.Admin.Name,
			Email:    a.config.Admin.Email,
			Password: a.config.Admin.Password,
		}); err != nil {
			return nil, fmt.Errorf("ensure admin: %w", err)
		}
	}

	var loginLimiter *httputil.RateLimiter
	if a.config.RateLimit.LoginPerMinute > 0 {
		loginLimiter = httputil.NewRateLimiter(a.config.RateLimit.LoginPerMinute, a.config.RateLimit.LoginBurst, loginLimiterTTL)
	}
	identityHandler := identity.NewHandler(a.identity, loginLimiter)

	customersService := customers.NewService(customerspostgres.NewRepository(a.db))
	customersHandler := customers.NewHandler(customersService)

	formatter := receipt.NewFormatter(a.config.Receipt.Location())
	billingService := billing.NewService(billingpostgres.NewRepository(a.db), customersService, formatter)
	billingHandler := billing.NewHandler(billingService)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", a.pingHandler)

		identityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(a.identity))

			identityHandler.RegisterProtectedRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(domain.RoleAdmin))
				customersHandler.RegisterRoutes(r)
				billingHandler.RegisterRoutes(r)
			})
		})
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) pingHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
