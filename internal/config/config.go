package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	SquareAccessToken string
	SquareLocationID  string
	SquareEnvironment string
	SquareBaseURL     string
	SquareAPIVersion  string
	CurrencyCode      string
	TaxRegion         string
	SizeCatalog       map[string]string

	PromoDirs            []string
	PromoFallback        map[string]json.RawMessage
	PromoEnforceSingle   bool
	PromoFunctionVersion string
	PromoRateLimitWindow time.Duration
	PromoRateLimitMax    int

	SMTPHost            string
	SMTPPort            int
	OrdersSMTPUsername  string
	OrdersSMTPPassword  string
	OrdersFromName      string
	OrdersCC            []string
	SupportEmail        string
	ContactEmail        string
	ContactSMTPUsername string
	ContactSMTPPassword string
	ContactFromName     string
	ContactRateLimit    string

	ArrivalsBaseURL  string
	ArrivalsCacheTTL time.Duration
	PaletteFile      string

	OutboundTimeout    time.Duration
	CircuitMinRequests int
	CircuitFailRatio   float64
	CircuitOpenFor     time.Duration
	IdempotencyTTL     time.Duration
	LockTTL            time.Duration
	BodyLimitBytes     int64
	SecurityHeaders    bool
	SMTPTimeout        time.Duration
	ShutdownDrain      time.Duration
	ShutdownTimeout    time.Duration

	Obs Observability
}

// Observability holds the OBS_* settings for logs, metrics, traces and pprof.
type Observability struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return build(k)
}

// FromMap builds a Config from explicit key/value pairs without reading the
// process environment.
func FromMap(values map[string]string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range values {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return build(k)
}

func build(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		SquareAccessToken: strings.TrimSpace(k.String("SQUARE_ACCESS_TOKEN")),
		SquareLocationID:  strings.TrimSpace(k.String("SQUARE_LOCATION_ID")),
		SquareEnvironment: strings.ToLower(valueOrDefault(k.String("SQUARE_ENVIRONMENT"), "production")),
		SquareBaseURL:     strings.TrimSpace(k.String("SQUARE_BASE_URL")),
		SquareAPIVersion:  valueOrDefault(k.String("SQUARE_API_VERSION"), "2024-07-17"),
		CurrencyCode:      strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		TaxRegion:         strings.ToUpper(valueOrDefault(k.String("TAX_REGION"), "CA")),

		PromoDirs:            splitAndTrim(valueOrDefault(k.String("PROMO_DIRS"), "data/discount_requests,data/discount-requests")),
		PromoEnforceSingle:   parseBool(k.String("PROMO_ENFORCE_SINGLE_USE")),
		PromoFunctionVersion: valueOrDefault(k.String("PROMO_FUNCTION_VERSION"), "promo-v5"),
		PromoRateLimitWindow: parseDuration(k.String("PROMO_RATE_LIMIT_WINDOW"), "1m"),
		PromoRateLimitMax:    parseInt(k.String("PROMO_RATE_LIMIT_MAX"), 30),

		SMTPHost:            valueOrDefault(k.String("SMTP_HOST"), "smtp.gmail.com"),
		SMTPPort:            parseInt(k.String("SMTP_PORT"), 587),
		OrdersSMTPUsername:  strings.TrimSpace(k.String("ORDERS_SMTP_USERNAME")),
		OrdersSMTPPassword:  k.String("ORDERS_SMTP_PASSWORD"),
		OrdersFromName:      valueOrDefault(k.String("ORDERS_FROM_NAME"), "KindaShirty Orders"),
		OrdersCC:            splitAndTrim(valueOrDefault(k.String("ORDERS_CC"), "Orders@thekinda.co")),
		SupportEmail:        valueOrDefault(k.String("SUPPORT_EMAIL"), "support@thekinda.co"),
		ContactEmail:        strings.TrimSpace(k.String("CONTACT_EMAIL")),
		ContactSMTPUsername: strings.TrimSpace(k.String("CONTACT_SMTP_USERNAME")),
		ContactSMTPPassword: k.String("CONTACT_SMTP_PASSWORD"),
		ContactFromName:     valueOrDefault(k.String("CONTACT_FROM_NAME"), "KindaShirty Contact Form"),
		ContactRateLimit:    valueOrDefault(k.String("CONTACT_RATE_LIMIT"), "5-M"),

		ArrivalsBaseURL:  strings.TrimRight(strings.TrimSpace(k.String("ARRIVALS_BASE_URL")), "/"),
		ArrivalsCacheTTL: parseDuration(k.String("ARRIVALS_CACHE_TTL"), "15m"),
		PaletteFile:      strings.TrimSpace(k.String("PALETTE_FILE")),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "15s"),
		CircuitMinRequests: parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 5),
		CircuitFailRatio:   parseFloat(k.String("CIRCUIT_FAILURE_RATIO"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:            parseDuration(k.String("LOCK_TTL"), "10s"),
		BodyLimitBytes:     int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeaders:    parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),
		SMTPTimeout:        parseDuration(k.String("SMTP_TIMEOUT"), "15s"),
		ShutdownDrain:      parseDuration(k.String("SHUTDOWN_DRAIN"), "0s"),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),

		Obs: Observability{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "kinda"),
			MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
			TracingEnabled:   parseBoolDefault(k.String("OBS_ENABLE_TRACING"), true),
			TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1),
			PprofEnabled:     parseBool(k.String("OBS_ENABLE_PPROF")),
			PprofUser:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_USER")),
			PprofPass:        strings.TrimSpace(k.String("SECURE_PPROF_BASIC_AUTH_PASS")),
		},
	}

	if cfg.ContactSMTPUsername == "" {
		cfg.ContactSMTPUsername = cfg.ContactEmail
	}

	sizes, err := parseSizeCatalog(k.String("SIZE_CATALOG_JSON"))
	if err != nil {
		return nil, err
	}
	cfg.SizeCatalog = sizes

	fallback, err := parsePromoFallback(k.String("PROMO_FALLBACK_JSON"))
	if err != nil {
		return nil, err
	}
	cfg.PromoFallback = fallback

	if cfg.SquareAccessToken == "" {
		return nil, errors.New("SQUARE_ACCESS_TOKEN is required")
	}
	if cfg.SquareLocationID == "" {
		return nil, errors.New("SQUARE_LOCATION_ID is required")
	}
	if cfg.SquareBaseURL == "" {
		cfg.SquareBaseURL = SquareBaseURL(cfg.SquareEnvironment)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// SquareBaseURL maps SQUARE_ENVIRONMENT to the Connect API host.
func SquareBaseURL(environment string) string {
	if strings.EqualFold(strings.TrimSpace(environment), "sandbox") {
		return "https://connect.squareupsandbox.com"
	}
	return "https://connect.squareup.com"
}

func parseSizeCatalog(raw string) (map[string]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("SIZE_CATALOG_JSON: %w", err)
	}
	return out, nil
}

func parsePromoFallback(raw string) (map[string]json.RawMessage, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("PROMO_FALLBACK_JSON: %w", err)
	}
	return out, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}
