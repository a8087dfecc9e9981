package app_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/app"
	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/config"
	"github.com/noah-isme/kinda-storefront/internal/square/squaretest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "summer.md"), []byte("---\ncode: SUMMER10\nstatus: Approved\namount: 10\n---\n"), 0o600))
	return &config.Config{
		AppEnv:               "test",
		SquareLocationID:     "LOC1",
		CurrencyCode:         "USD",
		TaxRegion:            "CA",
		PromoDirs:            []string{dir},
		PromoFunctionVersion: "promo-test",
		PromoRateLimitWindow: time.Minute,
		PromoRateLimitMax:    2,
		OrdersFromName:       "KindaShirty Orders",
		SupportEmail:         "support@example.com",
		ContactEmail:         "inbox@example.com",
		ContactRateLimit:     "5-M",
		ArrivalsCacheTTL:     time.Minute,
		IdempotencyTTL:       time.Hour,
		LockTTL:              time.Second,
		BodyLimitBytes:       1 << 20,
		SecurityHeaders:      true,
	}
}

func newApp(t *testing.T, withRedis bool) (*app.App, *common.InMemoryEmail) {
	t.Helper()
	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
	}
	contactMail := &common.InMemoryEmail{}
	a, err := app.New(app.Dependencies{
		Config:      testConfig(t),
		Logger:      zerolog.Nop(),
		Redis:       rdb,
		Square:      squaretest.New(t).Client(),
		ContactMail: contactMail,
		HTTP:        http.DefaultClient,
	})
	require.NoError(t, err)
	return a, contactMail
}

func do(a *app.App, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.RemoteAddr = "198.51.100.4:5000"
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealthWithoutRedis(t *testing.T) {
	a, _ := newApp(t, false)

	rec := do(a, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(a, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, "disabled", status["redis"])
	require.Equal(t, 1.0, status["promoFiles"])
	require.True(t, a.Promo.Ready())
}

func TestPromoRouteIsRateLimited(t *testing.T) {
	a, _ := newApp(t, true)

	rec := do(a, http.MethodGet, "/api/v1/promo/check?code=summer10&email=a@x.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "promo-test", rec.Header().Get("X-Function-Version"))
	require.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	require.JSONEq(t, `{"valid":true,"amount":10,"minSubtotal":0,"usageEnforced":false}`, rec.Body.String())

	require.Equal(t, http.StatusNotFound, do(a, http.MethodGet, "/api/v1/promo/check?code=nope", "").Code)
	rec = do(a, http.MethodGet, "/api/v1/promo/check?code=summer10", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTotalsPreviewRoute(t *testing.T) {
	a, _ := newApp(t, false)

	rec := do(a, http.MethodPost, "/api/v1/totals/preview", `{"cart":[{"product":"Pac Tee","size":"M","quantity":2}],"state":"NV"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, false, out["isCA"])
	require.Equal(t, 50.0, out["itemsGross"])
	require.Equal(t, 58.95, out["total"])
}

func TestContactRoute(t *testing.T) {
	a, mail := newApp(t, false)

	rec := do(a, http.MethodGet, "/api/v1/contact", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(a, http.MethodPost, "/api/v1/contact", `{"name":"Ada","email":"ada@example.com","subject":"Hi","message":"Hello"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, mail.Sent(), 1)
	require.Equal(t, []string{"inbox@example.com"}, mail.Sent()[0].To)
}

func TestColorsRoute(t *testing.T) {
	a, _ := newApp(t, false)

	rec := do(a, http.MethodGet, "/api/v1/colors?name=Black", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"name":"Black","hex":"#101820"}`, rec.Body.String())
}

func TestNewRejectsBadContactRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.ContactRateLimit = "lots"
	_, err := app.New(app.Dependencies{Config: cfg, Logger: zerolog.Nop(), Square: squaretest.New(t).Client()})
	require.Error(t, err)
}
