// Package app assembles the storefront services and HTTP routes.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/arrivals"
	"github.com/noah-isme/kinda-storefront/internal/catalog"
	"github.com/noah-isme/kinda-storefront/internal/checkout"
	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/config"
	"github.com/noah-isme/kinda-storefront/internal/contact"
	"github.com/noah-isme/kinda-storefront/internal/health"
	"github.com/noah-isme/kinda-storefront/internal/lock"
	"github.com/noah-isme/kinda-storefront/internal/notify"
	"github.com/noah-isme/kinda-storefront/internal/obs"
	"github.com/noah-isme/kinda-storefront/internal/order"
	"github.com/noah-isme/kinda-storefront/internal/payment"
	"github.com/noah-isme/kinda-storefront/internal/promo"
	"github.com/noah-isme/kinda-storefront/internal/ratelimit"
	"github.com/noah-isme/kinda-storefront/internal/resilience"
	"github.com/noah-isme/kinda-storefront/internal/security"
	"github.com/noah-isme/kinda-storefront/internal/square"
	"github.com/noah-isme/kinda-storefront/internal/theme"
	"github.com/noah-isme/kinda-storefront/internal/totals"
)

// Dependencies enumerates the shared clients the routes are built from.
// Redis is optional; every consumer degrades to in-process behaviour without it.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	Redis  *redis.Client
	Square *square.Client
	// SquareBreaker, when set, is reported by the readiness probe.
	SquareBreaker *resilience.Breaker
	OrdersMail    common.EmailSender
	ContactMail   common.EmailSender
	// HTTP fetches collection files for new arrivals.
	HTTP    *http.Client
	Metrics *obs.HTTPMetrics
	Tracing bool
	// Pprof is mounted under /debug when set.
	Pprof http.Handler
}

// App is the assembled HTTP surface plus the long-lived pieces main manages.
type App struct {
	Router http.Handler
	Promo  *promo.Index
}

// New wires services and returns the router.
func New(d Dependencies) (*App, error) {
	cfg := d.Config
	if cfg == nil {
		return nil, fmt.Errorf("app: config is required")
	}
	if d.Square == nil {
		return nil, fmt.Errorf("app: square client is required")
	}
	logger := d.Logger

	fallback, err := promo.DecodeFallback(cfg.PromoFallback)
	if err != nil {
		return nil, fmt.Errorf("decode promo fallback: %w", err)
	}
	index, err := promo.NewIndex(cfg.PromoDirs, fallback, cfg.PromoFunctionVersion, logger)
	if err != nil {
		return nil, fmt.Errorf("load promo index: %w", err)
	}

	checker := promo.Checker{Store: index}
	var claims promo.Claimer
	if cfg.PromoEnforceSingle && d.Redis != nil {
		ledger := promo.Ledger{R: d.Redis}
		checker.Ledger = ledger
		claims = ledger
	} else if cfg.PromoEnforceSingle {
		logger.Warn().Msg("promo single-use requested but redis is not configured; usage is not enforced")
	}
	resolver := promo.Resolver{Checker: checker, Claims: claims, Logger: logger}

	builder := order.Builder{
		LocationID: cfg.SquareLocationID,
		Currency:   cfg.CurrencyCode,
		TaxRegion:  cfg.TaxRegion,
		Sizes:      catalog.NewSizeMap(cfg.SizeCatalog),
	}

	ordersMail := d.OrdersMail
	if ordersMail == nil {
		ordersMail = common.NopEmailSender{}
	}
	contactMail := d.ContactMail
	if contactMail == nil {
		contactMail = common.NopEmailSender{}
	}

	checkoutSvc := &checkout.Service{
		Builder:   builder,
		Customers: d.Square,
		Orders:    d.Square,
		Payments:  payment.Square{API: d.Square, LocationID: cfg.SquareLocationID},
		Discounts: resolver,
		Notifier: notify.EmailNotifier{
			Mail:     ordersMail,
			FromName: cfg.OrdersFromName,
			CC:       cfg.OrdersCC,
			Support:  cfg.SupportEmail,
		},
		LockTTL: cfg.LockTTL,
		Logger:  logger,
	}
	if d.Redis != nil {
		checkoutSvc.Locker = lock.Locker{R: d.Redis, MaxWait: cfg.LockTTL}
	}

	totalsHandler := &totals.Handler{Svc: &totals.Service{
		Builder:  builder,
		Pricing:  d.Square,
		Discount: resolver,
		Logger:   logger,
	}}
	promoHandler := &promo.Handler{Index: index, Checker: checker, Version: cfg.PromoFunctionVersion}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}
	contactHandler := &contact.Handler{
		Relay:  notify.ContactRelay{Mail: contactMail, FromName: cfg.ContactFromName, Inbox: cfg.ContactEmail},
		Logger: logger,
	}
	// Without a fixed base the collection host comes from request headers.
	arrivalsRedis := d.Redis
	if cfg.ArrivalsBaseURL == "" && arrivalsRedis != nil {
		logger.Warn().Msg("ARRIVALS_BASE_URL unset; new-arrivals cache disabled")
		arrivalsRedis = nil
	}
	arrivalsHandler := &arrivals.Handler{
		Svc: &arrivals.Service{
			HTTP:   d.HTTP,
			Cache:  catalog.NewCache(arrivalsRedis, cfg.ArrivalsCacheTTL),
			Logger: logger,
		},
		BaseURL: cfg.ArrivalsBaseURL,
	}
	themeHandler := &theme.Handler{Palette: theme.Load(cfg.PaletteFile, logger)}

	limiterErr := func(err error) {
		logger.Warn().Err(err).Msg("rate limiter unavailable")
	}
	promoLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: d.Redis, Prefix: "rl:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("promo"),
			Window: cfg.PromoRateLimitWindow,
			Max:    cfg.PromoRateLimitMax,
		},
		OnError: limiterErr,
	}
	contactStore, err := ratelimit.NewStore(d.Redis, "rl:contact")
	if err != nil {
		return nil, fmt.Errorf("contact limiter store: %w", err)
	}
	contactLimit, err := ratelimit.Fixed(contactStore, cfg.ContactRateLimit, limiterErr)
	if err != nil {
		return nil, fmt.Errorf("CONTACT_RATE_LIMIT: %w", err)
	}
	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     cfg.SecurityHeaders,
		EnableHSTS: cfg.AppEnv == "production",
		HSTSMaxAge: 31536000,
	}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{promo.VersionHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	if d.Pprof != nil {
		r.Mount("/debug", d.Pprof)
	}
	healthHandler := health.Handler{
		Checker:      health.RedisChecker{Client: d.Redis},
		Promo:        index,
		RedisTimeout: 300 * time.Millisecond,
	}
	if d.SquareBreaker != nil {
		healthHandler.Breakers = append(healthHandler.Breakers, d.SquareBreaker)
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		v.With(promoLimit.Middleware).Get("/promo/check", promoHandler.Check)
		v.Post("/totals/preview", totalsHandler.Preview)
		v.With(idem.Middleware).Post("/checkout/charge", checkoutHandler.Charge)
		v.Get("/arrivals", arrivalsHandler.List)
		v.With(contactLimit).HandleFunc("/contact", contactHandler.Submit)
		v.Get("/colors", themeHandler.List)
	})

	return &App{Router: r, Promo: index}, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
