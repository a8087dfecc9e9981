package promo_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/promo"
)

func serveCheck(t *testing.T, h *promo.Handler, query string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promo/check"+query, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandlerCheck(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "summer.md", "---\ncode: SUMMER10\nstatus: Approved\namount: 10\nminSubtotal: 25\n---\n")
	writeDoc(t, dir, "draft.md", "---\ncode: DRAFT\nstatus: Submitted\namount: 10\n---\n")
	idx, err := promo.NewIndex([]string{dir}, nil, "promo-v5", zerolog.Nop())
	require.NoError(t, err)
	h := &promo.Handler{Index: idx, Checker: promo.Checker{Store: idx}, Version: "promo-v5"}

	rec, body := serveCheck(t, h, "?code=summer%2010&email=a@x.com")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "promo-v5", rec.Header().Get(promo.VersionHeader))
	require.Equal(t, map[string]any{"valid": true, "amount": 10.0, "minSubtotal": 25.0, "usageEnforced": false}, body)

	rec, body = serveCheck(t, h, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Missing promo code.", body["error"])
	require.Equal(t, false, body["valid"])

	rec, body = serveCheck(t, h, "?code=nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Code not found", body["error"])

	rec, body = serveCheck(t, h, "?code=draft")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["valid"])
	require.Equal(t, "Code not approved.", body["error"])

	rec, body = serveCheck(t, h, "?debug=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "promo-v5", body["version"])
	require.Len(t, body["filesFound"], 2)
}

func TestHandlerNotFoundHintsWhenEmpty(t *testing.T) {
	idx, err := promo.NewIndex([]string{t.TempDir()}, nil, "v", zerolog.Nop())
	require.NoError(t, err)
	h := &promo.Handler{Index: idx, Checker: promo.Checker{Store: idx}, Version: "v"}

	rec, body := serveCheck(t, h, "?code=SUMMER10")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Code not found (no promo files bundled?)", body["error"])
}
