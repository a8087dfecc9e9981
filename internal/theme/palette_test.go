package theme_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/theme"
)

func TestParseListForm(t *testing.T) {
	p, err := theme.Parse([]byte(`{"colors":[{"name":"Black","hex":"#101820"},{"name":"","hex":"#fff"},{"name":"Sand"},null,{"name":"Mint","hex":"#AAF0D1"}]}`))
	require.NoError(t, err)
	require.Equal(t, theme.Palette{{Name: "Black", Hex: "#101820"}, {Name: "Mint", Hex: "#AAF0D1"}}, p)
}

func TestParseFlatFormKeepsOrderAndValidatesHex(t *testing.T) {
	p, err := theme.Parse([]byte(`{"Navy":"#1A1F71","Bad":"blue","Short":"#fff","Army":"#4b5320","Num":5}`))
	require.NoError(t, err)
	require.Equal(t, theme.Palette{{Name: "Navy", Hex: "#1A1F71"}, {Name: "Army", Hex: "#4b5320"}}, p)
}

func TestParseYAML(t *testing.T) {
	p, err := theme.Parse([]byte("colors:\n  - name: Rust\n    hex: \"#B7410E\"\n"))
	require.NoError(t, err)
	require.Equal(t, theme.Palette{{Name: "Rust", Hex: "#B7410E"}}, p)

	_, err = theme.Parse([]byte(`["not", "an", "object"]`))
	require.Error(t, err)
}

func TestLoadFallsBack(t *testing.T) {
	require.Equal(t, theme.Default(), theme.Load("", zerolog.Nop()))
	require.Equal(t, theme.Default(), theme.Load(filepath.Join(t.TempDir(), "missing.json"), zerolog.Nop()))

	bad := filepath.Join(t.TempDir(), "colors.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1,2]`), 0o600))
	require.Equal(t, theme.Default(), theme.Load(bad, zerolog.Nop()))

	good := filepath.Join(t.TempDir(), "colors.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"Teal":"#008080"}`), 0o600))
	require.Equal(t, theme.Palette{{Name: "Teal", Hex: "#008080"}}, theme.Load(good, zerolog.Nop()))
}

func TestDefaultPaletteLookup(t *testing.T) {
	p := theme.Default()
	require.Len(t, p, 93)
	hex, ok := p.Hex("Black")
	require.True(t, ok)
	require.Equal(t, "#101820", hex)
	hex, ok = p.Hex("heather gray")
	require.False(t, ok)
	require.Empty(t, hex)
	hex, ok = p.Hex("athletic grey")
	require.True(t, ok)
	require.Equal(t, "#A9A9A9", hex)
}

func TestHandler(t *testing.T) {
	h := &theme.Handler{Palette: theme.Palette{{Name: "Black", Hex: "#101820"}}}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/colors", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string][]theme.Color
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, []theme.Color{{Name: "Black", Hex: "#101820"}}, out["colors"])

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/colors?name=black", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"name":"black","hex":"#101820"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/colors?name=nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
