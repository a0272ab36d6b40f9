package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/xwanai/shopify-sso-bridge/config"
	redisadapter "github.com/xwanai/shopify-sso-bridge/internal/adapters/redis"
	"github.com/xwanai/shopify-sso-bridge/internal/adapters/shopify"
	"github.com/xwanai/shopify-sso-bridge/internal/data"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	SSO           *service.SSOService
	Issuer        *service.TokenIssuer // nil when no partner base URL is configured
	Sync          *service.CustomerSyncService
	Verifier      *shopify.WebhookVerifier // nil when webhooks are not configured
	ShopDomains   *service.ShopDomainPolicy
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB           *sql.DB
	Redis        redis.UniversalClient
	CustomerRepo *data.CustomerRepo
	EventRepo    *data.WebhookEventRepo
	Sessions     *redisadapter.SessionStore
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		DB:           db,
		Redis:        redisClient,
		CustomerRepo: data.NewCustomerRepo(db),
		EventRepo:    data.NewWebhookEventRepo(db),
		Sessions:     redisadapter.NewSessionStore(redisClient),
	}
}

// NewServices wires repositories, the token codec, and the domain services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Config == nil {
		return ServiceContainer{}, errors.New("app config is required")
	}

	observability := buildObservability(logger, deps.Config.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient)

	codec, err := BuildCodec(deps.Config.SSO)
	if err != nil {
		return ServiceContainer{}, err
	}

	verifier, err := BuildWebhookVerifier(deps.Config.Shopify)
	if err != nil {
		return ServiceContainer{}, err
	}
	shopDomains := BuildShopDomainPolicy(deps.Config.Shopify)

	ssoSvc, err := service.NewSSOService(service.SSOServiceOptions{
		Codec:       codec,
		Sessions:    repos.Sessions,
		Customers:   repos.CustomerRepo,
		ShopDomains: shopDomains,
		SessionTTL:  deps.Config.SSO.SessionTTL,
		Logger:      logger,
		Metrics:     observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build sso service: %w", err)
	}

	var issuer *service.TokenIssuer
	if deps.Config.SSO.PartnerBaseURL != "" {
		issuer, err = service.NewTokenIssuer(service.TokenIssuerOptions{
			Codec:            codec,
			PartnerBaseURL:   deps.Config.SSO.PartnerBaseURL,
			PartnerLoginPath: deps.Config.SSO.PartnerLoginPath,
			ShopDomain:       deps.Config.Shopify.ShopDomain,
			Logger:           logger,
			Metrics:          observability.MetricsSink,
		})
		if err != nil {
			return ServiceContainer{}, fmt.Errorf("build token issuer: %w", err)
		}
	} else {
		logger.Info("partner base URL not configured; token issuance API disabled")
	}

	syncSvc, err := service.NewCustomerSyncService(service.CustomerSyncServiceOptions{
		Customers: repos.CustomerRepo,
		Events:    repos.EventRepo,
		Logger:    logger,
		Metrics:   observability.MetricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build customer sync service: %w", err)
	}

	return ServiceContainer{
		SSO:           ssoSvc,
		Issuer:        issuer,
		Sync:          syncSvc,
		Verifier:      verifier,
		ShopDomains:   shopDomains,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, groupCtx := errgroup.WithContext(serviceCtx)

	var httpServer *http.Server
	if enabledServices[config.ServiceModeHTTP] {
		httpServer = StartHTTPServer(&HTTPServerConfig{
			Config:   cfg.Config,
			Services: cfg.Services,
			Logger:   logger,
		})
	}

	if enabledServices[config.ServiceModeWebhookReaper] {
		logger.Info("background service started", "service", "webhook reaper")
		group.Go(func() error {
			if runErr := RunWebhookReaper(groupCtx, WebhookReaperConfig{
				DB:      cfg.DB,
				Logger:  logger,
				Config:  cfg.Config.Reaper,
				Metrics: cfg.Services.Observability.MetricsSink,
			}); runErr != nil {
				return fmt.Errorf("webhook reaper failed: %w", runErr)
			}
			return nil
		})
	}

	// Surface background failures without blocking signal handling.
	errCh := make(chan error, 1)
	go func() { errCh <- group.Wait() }()

	return waitForShutdown(shutdownConfig{
		ctx:        serviceCtx,
		cancel:     cancel,
		errCh:      errCh,
		httpServer: httpServer,
		shutdown:   cfg.Config.HTTP.ShutdownTimeout,
		logger:     logger,
	})
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx        context.Context
	cancel     context.CancelFunc
	errCh      <-chan error
	httpServer *http.Server
	shutdown   time.Duration
	logger     *slog.Logger
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		if err == nil {
			// All background services exited cleanly (e.g. nothing enabled
			// besides HTTP); keep serving until a signal arrives.
			<-quit
			cfg.logger.Info("shutting down services...")
			cfg.cancel()
			return gracefulStop(cfg)
		}
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer == nil {
		return nil
	}

	timeout := cfg.shutdown
	if timeout <= 0 {
		timeout = shutdownWaitTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return ShutdownHTTPServer(ShutdownConfig{
		Context: shutdownCtx,
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	})
}
