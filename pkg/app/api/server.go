// Package api implements app.Runner for the wizard API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apphttp "github.com/tokenforge/wizard-middleware/pkg/app/http"
	"github.com/tokenforge/wizard-middleware/pkg/asset/registry"
	"github.com/tokenforge/wizard-middleware/pkg/auth"
	"github.com/tokenforge/wizard-middleware/pkg/config"
	"github.com/tokenforge/wizard-middleware/pkg/forms"
	"github.com/tokenforge/wizard-middleware/pkg/gateway"
	"github.com/tokenforge/wizard-middleware/pkg/metadata"
	opsservice "github.com/tokenforge/wizard-middleware/pkg/operations/service"
	"github.com/tokenforge/wizard-middleware/pkg/pgutil"
	"github.com/tokenforge/wizard-middleware/pkg/policy"
	"github.com/tokenforge/wizard-middleware/pkg/sessionstore"
	"github.com/tokenforge/wizard-middleware/pkg/tokenstore"
	wizardservice "github.com/tokenforge/wizard-middleware/pkg/wizard/service"
)

const defaultRequestTimeout = 60 * time.Second

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting wizard API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	formRegistry := forms.NewRegistry()

	routing, err := s.loadRouting(logger)
	if err != nil {
		return err
	}
	// An orphaned routing entry fails startup, not a live session.
	if err := routing.Validate(formRegistry.Has); err != nil {
		return fmt.Errorf("routing table validation: %w", err)
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	sessionStore := sessionstore.NewStore(db)
	tokenStore := tokenstore.NewStore(db)

	policyClient := policy.NewClient(cfg.Policy, logger)
	gatewayClient := gateway.NewClient(cfg.Gateway, logger)
	builder := metadata.NewBuilder(logger)

	wizardSvc := wizardservice.NewService(
		sessionStore,
		tokenStore,
		routing,
		formRegistry,
		builder,
		policyClient,
		gatewayClient,
		logger,
	)
	opsSvc := opsservice.NewService(tokenStore, policyClient, gatewayClient, logger)

	router := s.setupRouter(
		wizardservice.NewLog(wizardSvc, logger),
		opsservice.NewLog(opsSvc, logger),
		logger,
	)

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

func (s *Server) loadRouting(logger *zap.Logger) (*registry.Registry, error) {
	if s.cfg.Routing.File != "" {
		logger.Info("Loading routing table override", zap.String("file", s.cfg.Routing.File))
		routing, err := registry.FromFile(s.cfg.Routing.File)
		if err != nil {
			return nil, fmt.Errorf("load routing table: %w", err)
		}
		return routing, nil
	}

	routing, err := registry.Default()
	if err != nil {
		return nil, fmt.Errorf("load embedded routing table: %w", err)
	}
	return routing, nil
}

func (s *Server) setupRouter(
	wizardSvc wizardservice.Service,
	opsSvc opsservice.Service,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	requestTimeout := s.cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	r.Use(middleware.Timeout(requestTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// API endpoints, bearer-token protected when JWKS is configured
	r.Group(func(r chi.Router) {
		if s.cfg.JWKS.URL != "" {
			validator := auth.NewJWTValidator(s.cfg.JWKS.URL, s.cfg.JWKS.Issuer)
			r.Use(auth.Middleware(validator, logger))
			logger.Info("JWT validation enabled", zap.String("jwks_url", s.cfg.JWKS.URL))
		}

		wizardservice.RegisterRoutes(r, wizardSvc, logger)
		opsservice.RegisterRoutes(r, opsSvc, logger)
	})

	return r
}
