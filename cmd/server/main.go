package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"confsite/internal/admin"
	archivehandler "confsite/internal/archive/handler"
	"confsite/internal/archive/legacy"
	archivemetrics "confsite/internal/archive/metrics"
	"confsite/internal/archive/page"
	"confsite/internal/archive/resolver"
	"confsite/internal/cms"
	"confsite/internal/platform/config"
	"confsite/internal/platform/health"
	"confsite/internal/platform/httpserver"
	"confsite/internal/platform/logger"
	"confsite/internal/platform/redis"
	"confsite/internal/platform/tracer"
	registrationhandler "confsite/internal/registration/handler"
	"confsite/internal/registration/mailer"
	registrationmetrics "confsite/internal/registration/metrics"
	"confsite/internal/registration/notify"
	"confsite/internal/registration/service"
	"confsite/internal/registration/store"
	"confsite/internal/revalidate"
	"confsite/internal/site"
	httptransport "confsite/internal/transport/http"
	"confsite/pkg/platform/circuit"
	"confsite/pkg/platform/middleware/metadata"
	request "confsite/pkg/platform/middleware/request"
)

const (
	probeCacheCapacity = 10_000
	pageCacheCapacity  = 64
	poolStatsInterval  = 15 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing confsite",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"legacy_origin", cfg.Archive.LegacyOrigin,
		"cms_enabled", cfg.CMS.Enabled(),
		"smtp_enabled", cfg.SMTP.Enabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	trustedProxies, err := metadata.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}

	tr := tracer.NewOTel("confsite")
	healthHandler := health.New(cfg.Environment)

	var cmsClient *cms.Client
	if cfg.CMS.Enabled() {
		cmsClient = cms.New(cfg.CMS, cms.WithTracer(tr))
	}
	years := site.NewYearSource(querier(cmsClient), cfg.CurrentYear, log)

	redisClient, err := redis.New(ctx, cfg.Redis, redis.NewPoolMetrics(reg))
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck // process is exiting
		healthHandler.RegisterCheck("redis", redisClient.Health)
		go recordPoolStats(ctx, redisClient)
	}

	archiveMetrics := archivemetrics.New(reg)
	legacyClient := legacy.New(cfg.Archive.LegacyOrigin, legacy.WithTracer(tr))

	probeCache, err := newProbeCache(cfg, redisClient, log)
	if err != nil {
		return err
	}
	assets := resolver.New(legacyClient, log,
		resolver.WithCache(probeCache),
		resolver.WithConcurrency(cfg.Archive.ProbeConcurrency),
		resolver.WithMetrics(archiveMetrics),
		resolver.WithTracer(tr),
	)

	pageCache, err := page.NewCache(pageCacheCapacity, cfg.Archive.PageCacheTTL)
	if err != nil {
		return err
	}
	pages := page.NewResolver(legacyClient, years, log,
		page.WithCache(pageCache),
		page.WithBreaker(circuit.New("legacy-pages")),
		page.WithMetrics(archiveMetrics),
	)

	registrations := newRegistrationService(cfg, cmsClient, reg, log)

	routes := httptransport.Routes{
		Pages: []httptransport.Registrar{
			healthHandler,
			archivehandler.New(legacyClient, pages, assets, log, archiveMetrics),
		},
		API: []httptransport.Registrar{
			registrationhandler.New(registrations, log),
			admin.New(admin.NewService(cfg.Secrets.AdminToken), log),
		},
		Webhooks: []httptransport.Registrar{
			revalidate.New(pageCache, cfg.Secrets.RevalidateSecret, log),
		},
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	router := httptransport.NewRouter(routes, log, httptransport.Options{
		TrustedProxies: trustedProxies,
		Latency:        request.NewMetrics(reg),
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// querier keeps a nil *cms.Client from becoming a non-nil interface.
func querier(c *cms.Client) site.Querier {
	if c == nil {
		return nil
	}
	return c
}

func newProbeCache(cfg config.Server, client *redis.Client, log *slog.Logger) (resolver.ProbeCache, error) {
	if client != nil {
		return resolver.NewRedisProbeCache(client, cfg.Archive.ProbeCacheTTL, func(ctx context.Context, op string, err error) {
			log.WarnContext(ctx, "probe cache unavailable", "op", op, "error", err)
		}), nil
	}
	return resolver.NewMemoryProbeCache(probeCacheCapacity, cfg.Archive.ProbeCacheTTL)
}

func newRegistrationService(cfg config.Server, cmsClient *cms.Client, reg prometheus.Registerer, log *slog.Logger) *service.Service {
	var registrationStore service.Store
	if cmsClient != nil {
		registrationStore = store.NewCMSStore(cmsClient)
	} else {
		log.Warn("CMS not configured; registrations are kept in memory")
		registrationStore = store.NewInMemoryStore()
	}

	opts := []service.Option{service.WithMetrics(registrationmetrics.New(reg))}
	if cfg.Webhook.URL != "" {
		webhook := notify.NewWebhook(cfg.Webhook.URL, cfg.Webhook.Provider)
		log.Info("registration webhook enabled", "provider", webhook.Provider())
		opts = append(opts, service.WithNotifier(webhook))
	}
	if cfg.SMTP.Enabled() {
		opts = append(opts, service.WithMailer(mailer.New(cfg.SMTP, cfg.BaseURL)))
	}
	return service.New(registrationStore, log, opts...)
}

func recordPoolStats(ctx context.Context, client *redis.Client) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client.RecordPoolStats()
		}
	}
}
