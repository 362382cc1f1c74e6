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

	"github.com/lodgeworks/lodge-api/config"
	expiryadapter "github.com/lodgeworks/lodge-api/internal/adapters/expiry"
	"github.com/lodgeworks/lodge-api/internal/authz"
	"github.com/lodgeworks/lodge-api/internal/core"
	"github.com/lodgeworks/lodge-api/internal/data"
	httpx "github.com/lodgeworks/lodge-api/internal/http"
	"github.com/lodgeworks/lodge-api/internal/observability/metrics"
	"github.com/lodgeworks/lodge-api/internal/observability/notify/pagerduty"
	"github.com/lodgeworks/lodge-api/internal/observability/notify/slack"
	"github.com/lodgeworks/lodge-api/internal/observability/statsd"
	"github.com/lodgeworks/lodge-api/internal/service"
	"github.com/lodgeworks/lodge-api/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Lodges        *service.LodgeService
	Members       *service.MemberService
	Candidates    *service.CandidateService
	Events        *service.EventService
	Posts         *service.PostService
	Auth          *service.AuthService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	FailureNotifier *failurenotifier.Service
	NotifierConfig  config.ObservabilityNotificationsConfig
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
	DB            *sql.DB
	Redis         redis.UniversalClient
	LodgeRepo     *data.LodgeRepo
	MemberRepo    *data.MemberRepo
	CandidateRepo *data.CandidateRepo
	EventRepo     *data.EventRepo
	PostRepo      *data.PostRepo
	RosterCache   *data.RedisRosterCache
	ReverseLookup *data.CachedReverseLookup
}

// buildObservability configures metrics and notification adapters.
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
			Prefix:  "lodge_api",
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	failureNotifier := buildFailureNotifier(obsLogger, cfg.Notifications)

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		FailureNotifier: failureNotifier,
		NotifierConfig:  cfg.Notifications,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, cacheCfg config.CacheConfig) *serviceRepositories {
	var rosterCache *data.RedisRosterCache
	if redisClient != nil {
		rosterCache = data.NewRedisRosterCache(redisClient, cacheCfg.RosterTTL)
	}

	// Typed nil is fine here; CachedReverseLookup treats a nil cache as a miss.
	reverseLookup := data.NewCachedReverseLookup(data.NewReverseLookupRepo(db), rosterCache)

	return &serviceRepositories{
		DB:            db,
		Redis:         redisClient,
		LodgeRepo:     data.NewLodgeRepo(db),
		MemberRepo:    data.NewMemberRepo(db),
		CandidateRepo: data.NewCandidateRepo(db),
		EventRepo:     data.NewEventRepo(db),
		PostRepo:      data.NewPostRepo(db),
		RosterCache:   rosterCache,
		ReverseLookup: reverseLookup,
	}
}

// buildGuard wires the access guard with a decision counter so every
// allow/deny shows up in metrics.
func buildGuard(observability ObservabilityContainer) *authz.Guard {
	var sink authz.DecisionSink
	if observability.MetricsSink != nil {
		sink = metrics.NewDecisionCounter(observability.MetricsSink)
	}
	return authz.NewGuard(authz.GuardOptions{Sink: sink})
}

// DomainServicesOptions groups inputs for buildDomainServices.
type DomainServicesOptions struct {
	Repos         *serviceRepositories
	Observability ObservabilityContainer
	Config        *config.AppConfig
	Logger        *slog.Logger
}

// buildDomainServices wires business services using repositories and observability adapters.
func buildDomainServices(opts *DomainServicesOptions) (ServiceContainer, error) {
	if opts == nil {
		return ServiceContainer{}, errors.New("domain service options are required")
	}
	svcLogger := opts.Logger
	if svcLogger == nil {
		svcLogger = slog.Default()
	}

	appCfg := opts.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	guard := buildGuard(opts.Observability)
	resolver := authz.NewResolver(opts.Repos.ReverseLookup)

	lodgeService, err := service.NewLodgeService(service.LodgeServiceOptions{
		Guard:  guard,
		Lodges: opts.Repos.LodgeRepo,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("wire lodge service: %w", err)
	}

	memberService, err := service.NewMemberService(service.MemberServiceOptions{
		Guard:       guard,
		Members:     opts.Repos.MemberRepo,
		Cache:       rosterCacheOrNil(opts.Repos.RosterCache),
		RootLodgeID: appCfg.Services.Authz.RootLodgeID,
		Logger:      svcLogger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("wire member service: %w", err)
	}

	candidateService, err := service.NewCandidateService(service.CandidateServiceOptions{
		Guard:      guard,
		Candidates: opts.Repos.CandidateRepo,
		Resolver:   resolver,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("wire candidate service: %w", err)
	}

	eventService, err := service.NewEventService(service.EventServiceOptions{
		Guard:  guard,
		Events: opts.Repos.EventRepo,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("wire event service: %w", err)
	}

	postService, err := service.NewPostService(service.PostServiceOptions{
		Guard: guard,
		Posts: opts.Repos.PostRepo,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("wire post service: %w", err)
	}

	authService := BuildAuthService(AuthConfig{
		Auth:        appCfg.Auth,
		RedisClient: opts.Repos.Redis,
		Members:     opts.Repos.MemberRepo,
		Logger:      svcLogger,
	})

	return ServiceContainer{
		Lodges:        lodgeService,
		Members:       memberService,
		Candidates:    candidateService,
		Events:        eventService,
		Posts:         postService,
		Auth:          authService,
		Observability: opts.Observability,
	}, nil
}

// rosterCacheOrNil avoids handing services a typed-nil cache interface.
func rosterCacheOrNil(cache *data.RedisRosterCache) core.RosterCache {
	if cache == nil {
		return nil
	}
	return cache
}

// NewServices wires the full service container from raw dependencies.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service dependencies are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var obsCfg config.ObservabilityConfig
	var cacheCfg config.CacheConfig
	if deps.Config != nil {
		obsCfg = deps.Config.Observability
		cacheCfg = deps.Config.Cache
	}
	observability := buildObservability(logger, obsCfg)
	repos := buildRepositories(deps.DB, deps.RedisClient, cacheCfg)
	return buildDomainServices(&DomainServicesOptions{
		Repos:         repos,
		Observability: observability,
		Config:        deps.Config,
		Logger:        logger,
	})
}

func buildFailureNotifier(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{
			Logger: baseLogger.With("component", "failure_notifier"),
		})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 2)

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "slack",
				Sink: client,
			})
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{
				Name: "pagerduty",
				Sink: client,
			})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger: baseLogger.With("component", "failure_notifier"),
		Sinks:  sinks,
	})
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

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:    deps.cfg.Config,
		Services:  deps.cfg.Services,
		Readiness: buildReadinessChecks(deps.cfg.DB, deps.cfg.RedisClient),
		Logger:    deps.logger,
	})
}

// buildReadinessChecks wires /readyz probes for the backing stores the
// process actually holds connections to.
func buildReadinessChecks(db *sql.DB, redisClient redis.UniversalClient) []httpx.ReadinessCheck {
	checks := make([]httpx.ReadinessCheck, 0, 2)
	if db != nil {
		checks = append(checks, httpx.ReadinessCheck{
			Name:  "postgres",
			Check: db.PingContext,
		})
	}
	if redisClient != nil {
		checks = append(checks, httpx.ReadinessCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		})
	}
	return checks
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				if deps.logger != nil {
					deps.logger.WarnContext(
						ctx,
						"dropping background service error",
						"service",
						descriptor.name,
						"error",
						errMsg,
					)
				} else {
					slog.Default().WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
				}
			}
		}
	}()

	if deps.logger != nil {
		deps.logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	} else {
		slog.Default().InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	}

	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newExpiryBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeExpiry,
		name: "candidate expiry",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			expiryCfg := config.ExpiryConfig{}
			if deps.cfg.Config != nil {
				expiryCfg = deps.cfg.Config.Services.Expiry
			}
			runner, err := expiryadapter.NewRunner(expiryadapter.RunnerOptions{
				DB:              deps.cfg.DB,
				Config:          expiryCfg,
				Logger:          deps.logger,
				Metrics:         deps.cfg.Services.Observability.MetricsSink,
				FailureNotifier: deps.cfg.Services.Observability.FailureNotifier,
			})
			if err != nil {
				return fmt.Errorf("wire expiry runner: %w", err)
			}
			return runner.Run(ctx)
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newExpiryBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	ctx := context.Background()
	serviceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:                 serviceCtx,
		cancel:              cancel,
		errCh:               errCh,
		httpServer:          result.HTTPServer,
		httpShutdownTimeout: cfg.Config.HTTP.ShutdownTimeout,
		logger:              logger,
		backgrounds:         result.Background,
	})
}

func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	modes := []config.ServiceMode{
		config.ServiceModeHTTP,
		config.ServiceModeExpiry,
	}

	count := 0
	for _, mode := range modes {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	size := errorChannelCapacity(enabled) + 1
	if size < 1 {
		return 1
	}
	return size
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx                 context.Context
	cancel              context.CancelFunc
	errCh               <-chan error
	httpServer          *http.Server
	httpShutdownTimeout time.Duration
	logger              *slog.Logger
	backgrounds         []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	// Gracefully stop HTTP server if running
	if cfg.httpServer != nil {
		timeout := cfg.httpShutdownTimeout
		if timeout <= 0 {
			timeout = shutdownWaitTimeout
		}

		if err := ShutdownHTTPServer(ShutdownConfig{
			// The service context is already cancelled; in-flight requests
			// get a fresh deadline to drain.
			Context: context.Background(),
			Server:  cfg.httpServer,
			Timeout: timeout,
			Logger:  cfg.logger,
		}); err != nil {
			return err
		}
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
