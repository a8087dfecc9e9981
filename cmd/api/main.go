package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/app"
	"github.com/noah-isme/kinda-storefront/internal/config"
	"github.com/noah-isme/kinda-storefront/internal/health"
	"github.com/noah-isme/kinda-storefront/internal/notify"
	"github.com/noah-isme/kinda-storefront/internal/obs"
	"github.com/noah-isme/kinda-storefront/internal/resilience"
	"github.com/noah-isme/kinda-storefront/internal/square"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	tracing := cfg.Obs.TracingEnabled
	if tracing {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "kinda-storefront",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracing = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	redisClient := openRedis(cfg, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Target:       "square",
		MinRequests:  cfg.CircuitMinRequests,
		FailureRatio: cfg.CircuitFailRatio,
		OpenFor:      cfg.CircuitOpenFor,
		Logger:       logger,
	})
	squareClient := square.NewClient(
		cfg.SquareBaseURL,
		cfg.SquareAccessToken,
		cfg.SquareAPIVersion,
		obs.OutboundClient(cfg.OutboundTimeout),
		breaker,
		cfg.OutboundTimeout,
	)

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	storefront, err := app.New(app.Dependencies{
		Config:        cfg,
		Logger:        logger,
		Redis:         redisClient,
		Square:        squareClient,
		SquareBreaker: breaker,
		OrdersMail:    mailer(cfg, "order", cfg.OrdersSMTPUsername, cfg.OrdersSMTPPassword, logger),
		ContactMail:   mailer(cfg, "contact", cfg.ContactSMTPUsername, cfg.ContactSMTPPassword, logger),
		HTTP:          obs.OutboundClient(cfg.OutboundTimeout),
		Metrics:       httpMetrics,
		Tracing:       tracing,
		Pprof:         profiler(cfg.Obs),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise storefront")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := storefront.Promo.Watch(ctx); err != nil {
			logger.Error().Err(err).Msg("promo watcher stopped")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           storefront.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-ctx.Done()
	health.SetReady(false)
	logger.Info().Dur("drain", cfg.ShutdownDrain).Msg("shutdown requested")
	time.Sleep(cfg.ShutdownDrain)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

// openRedis returns nil when REDIS_URL is unset. A failed ping is logged but
// not fatal; readiness reports the outage.
func openRedis(cfg *config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set; idempotency, promo single-use and shared rate limits are disabled")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("ping redis")
	}
	return client
}

func mailer(cfg *config.Config, kind, username, password string, logger zerolog.Logger) notify.SMTPMailer {
	return notify.SMTPMailer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: username,
		Password: password,
		Timeout:  cfg.SMTPTimeout,
		Kind:     kind,
		Logger:   logger,
	}
}

// profiler returns chi's pprof routes, behind basic auth when credentials are
// configured, or nil when profiling is off.
func profiler(o config.Observability) http.Handler {
	if !o.PprofEnabled {
		return nil
	}
	if o.PprofUser == "" {
		return middleware.Profiler()
	}
	return chi.Chain(middleware.BasicAuth("pprof", map[string]string{o.PprofUser: o.PprofPass})).Handler(middleware.Profiler())
}
