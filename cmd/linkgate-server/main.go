// Package main provides the entry point for linkgate-server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/yndnr/linkgate-go/internal/audit"
	"github.com/yndnr/linkgate-go/internal/core/service"
	"github.com/yndnr/linkgate-go/internal/delivery"
	"github.com/yndnr/linkgate-go/internal/infra/buildinfo"
	"github.com/yndnr/linkgate-go/internal/infra/confloader"
	"github.com/yndnr/linkgate-go/internal/infra/shutdown"
	"github.com/yndnr/linkgate-go/internal/resource"
	"github.com/yndnr/linkgate-go/internal/server/config"
	"github.com/yndnr/linkgate-go/internal/server/httpserver"
	"github.com/yndnr/linkgate-go/internal/storage/memory"
	"github.com/yndnr/linkgate-go/internal/telemetry/logger"
	"github.com/yndnr/linkgate-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		envFiles    stringList
	)
	flag.Var(&envFiles, "env-file", "Load a .env file before the environment (repeatable, default .env)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("linkgate-server %s\n", buildinfo.String())
		return nil
	}
	if len(envFiles) == 0 {
		envFiles = stringList{".env"}
	}

	loadOpts := config.LoadOptions{File: *configFile, DotEnv: envFiles}
	cfg, err := config.Load(loadOpts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting linkgate-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	srv, err := newServer(cfg, log, metric.NewRegistry())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.start(ctx); err != nil {
		return err
	}

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	reload := func() {
		next, err := config.Load(loadOpts)
		if err != nil {
			log.Error("config reload rejected", "error", err)
			return
		}
		srv.reload(next)
	}
	shutdownHandler.OnReload(reload)

	watcher, err := watchConfig(loadOpts.File, cfg.Security.IssuerKeysFile, log, reload)
	if err != nil {
		log.Warn("config watcher disabled", "error", err)
	}

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown("audit", func(context.Context) error { return srv.closeAudit() })
	if watcher != nil {
		shutdownHandler.OnShutdown("watcher", func(context.Context) error { return watcher.Stop() })
	}
	shutdownHandler.OnShutdown("delivery", srv.verifier.Wait)
	shutdownHandler.OnShutdown("sweeper", func(context.Context) error {
		srv.sweeper.Stop()
		return nil
	})
	shutdownHandler.OnShutdown("http", srv.http.Shutdown)

	go func() {
		httpCfg := cfg.Server.HTTP
		log.Info("HTTP server listening", "addr", httpCfg.Addr, "tls", httpCfg.TLSCertFile != "")

		var err error
		if httpCfg.TLSCertFile != "" && httpCfg.TLSKeyFile != "" {
			err = srv.http.ListenAndServeTLS(httpCfg.TLSCertFile, httpCfg.TLSKeyFile)
		} else {
			err = srv.http.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}

// server holds the wired components of a running instance.
type server struct {
	store    *memory.Store
	verifier *service.VerificationService
	gate     *service.Gatekeeper
	auth     *service.AuthService
	sweeper  *service.Sweeper
	bus      *audit.Bus
	sink     *audit.LogSink
	handler  http.Handler
	http     *httpserver.Server
	logger   *slog.Logger
}

// newServer wires storage, services and the HTTP surface from cfg.
func newServer(cfg *config.ServerConfig, log *slog.Logger, registry *metric.Registry) (*server, error) {
	s := &server{logger: log}

	s.store = memory.New(
		memory.WithBypassWindow(cfg.Gate.BypassWindow),
		memory.WithMaxLinks(cfg.Links.MaxLinks),
	)
	registry.MustRegister(metric.NewStoreCollector(s.store.Stats))

	opts := []service.Option{service.WithLogger(log), service.WithMetrics(registry)}
	if cfg.Audit.Enabled {
		s.bus = audit.NewBus(cfg.Audit.Topic)
		s.sink = audit.NewLogSink(log)
		opts = append(opts, service.WithPublisher(s.bus))
	}

	s.verifier = service.NewVerificationService(s.store, newDeliverer(cfg, log), &service.VerificationConfig{
		CodeTTL:         cfg.Challenge.TTL,
		MaxAttempts:     cfg.Challenge.MaxAttempts,
		MessageTemplate: cfg.Challenge.MessageTemplate,
		DeliveryTimeout: cfg.Delivery.Timeout,
	}, opts...)

	signatures := service.Signatures{
		AutomatedAgents:  cfg.Classifier.AutomatedAgents,
		MobileAgents:     cfg.Classifier.MobileAgents,
		ChannelReferrers: cfg.Classifier.ChannelReferrers,
	}.Merge(service.DefaultSignatures())

	s.gate = service.NewGatekeeper(s.store, service.NewClassifier(signatures), s.verifier, &service.GatekeeperConfig{
		BypassWindow:    cfg.Gate.BypassWindow,
		AmbiguousPolicy: service.AmbiguousPolicy(cfg.Gate.AmbiguousPolicy),
		DefaultTTL:      cfg.Links.DefaultTTL,
		MaxTTL:          cfg.Links.MaxTTL,
	}, opts...)

	s.sweeper = service.NewSweeper(s.store, cfg.Links.SweepInterval, opts...)

	authCfg := service.DefaultAuthServiceConfig()
	authCfg.Metrics = registry
	s.auth = service.NewAuthService(cfg.Security.IssuerKeys, authCfg)

	provider, err := resource.NewDirProvider(cfg.Resource.Dir, cfg.Resource.Pattern, cfg.Resource.StaleAfter, resource.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("init resources: %w", err)
	}

	routerCfg := httpserver.DefaultRouterConfig()
	routerCfg.Gatekeeper = s.gate
	routerCfg.AuthService = s.auth
	routerCfg.Resources = provider
	routerCfg.Metrics = registry
	routerCfg.Logger = log
	routerCfg.PublicBaseURL = cfg.Server.HTTP.PublicBaseURL
	routerCfg.ChallengeTTL = cfg.Challenge.TTL
	routerCfg.AdminAllowList = cfg.Security.AdminAllowList
	routerCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	routerCfg.MetricsAuthRequired = cfg.Security.MetricsAuth
	routerCfg.EnableAudit = cfg.Audit.Enabled
	if cfg.RateLimit.Enabled {
		routerCfg.VerifyLimit = httpserver.RateLimitConfig{Requests: cfg.RateLimit.VerifyRequests, Window: cfg.RateLimit.VerifyWindow}
		routerCfg.VerifySecretLimit = httpserver.RateLimitConfig{Requests: cfg.RateLimit.VerifySecretRequests, Window: cfg.RateLimit.VerifySecretWindow}
		routerCfg.IssueLimit = httpserver.RateLimitConfig{Requests: cfg.RateLimit.IssueRequests, Window: cfg.RateLimit.IssueWindow}
	} else {
		routerCfg.VerifyLimit = httpserver.RateLimitConfig{}
		routerCfg.VerifySecretLimit = httpserver.RateLimitConfig{}
		routerCfg.IssueLimit = httpserver.RateLimitConfig{}
	}
	s.handler = httpserver.NewRouter(routerCfg)

	s.http = httpserver.NewWithOptions(cfg.Server.HTTP.Addr, s.handler, httpserver.Options{
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
	})

	log.Info("services initialized",
		"issuer_keys", s.auth.KeyCount(),
		"delivery", cfg.Delivery.Mode,
		"ambiguous_policy", cfg.Gate.AmbiguousPolicy,
		"resource_dir", provider.Dir(),
		"audit", cfg.Audit.Enabled)
	return s, nil
}

// newDeliverer picks the code delivery channel.
func newDeliverer(cfg *config.ServerConfig, log *slog.Logger) service.Deliverer {
	if cfg.Delivery.Mode == "log" {
		log.Warn("verification codes are logged, not delivered")
		return delivery.NewLogDeliverer(log)
	}
	return delivery.NewRelayClient(delivery.RelayConfig{
		URL:           cfg.Delivery.RelayURL,
		AuthToken:     cfg.Delivery.AuthToken,
		Timeout:       cfg.Delivery.Timeout,
		RatePerSecond: cfg.Delivery.RatePerSecond,
		Burst:         cfg.Delivery.Burst,
		ContactSuffix: cfg.Delivery.ContactSuffix,
	}, delivery.WithRelayLogger(log))
}

// start launches the background workers.
func (s *server) start(ctx context.Context) error {
	if s.sink != nil {
		if err := s.sink.Start(ctx, s.bus); err != nil {
			return fmt.Errorf("start audit sink: %w", err)
		}
	}
	s.sweeper.Start(ctx)
	return nil
}

// reload applies the parts of cfg that can change at runtime.
func (s *server) reload(cfg *config.ServerConfig) {
	s.auth.Reload(cfg.Security.IssuerKeys)
	logger.SetLevel(cfg.Log.Level)
	s.logger.Info("configuration reloaded", "issuer_keys", s.auth.KeyCount(), "log_level", logger.GetLevel())
}

// closeAudit closes the bus and waits for the sink to drain.
func (s *server) closeAudit() error {
	if s.bus == nil {
		return nil
	}
	err := s.bus.Close()
	<-s.sink.Done()
	s.logger.Info("audit bus closed", "published", s.bus.Published())
	return err
}

// watchConfig reloads when the config file or issuer keys file changes.
func watchConfig(configFile, keysFile string, log *slog.Logger, reload func()) (*confloader.Watcher, error) {
	if configFile == "" && keysFile == "" {
		return nil, nil
	}

	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	for _, path := range []string{configFile, keysFile} {
		if path == "" {
			continue
		}
		if err := w.Watch(path); err != nil {
			w.Stop()
			return nil, err
		}
	}
	w.OnChange(func(path string) {
		log.Info("config file changed", "path", path)
		reload()
	})
	w.StartAsync()
	return w, nil
}
