package arrivals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
)

func TestSeededGeneratorsMatchBrowser(t *testing.T) {
	require.Equal(t, uint32(4115893088), xmur3("2025-09-04")())
	require.Equal(t, uint32(2427003974), xmur3("é☃😀")())

	rand := mulberry32(xmur3("2025-09-04")())
	require.Equal(t, 0.808623192133382, rand())
	require.Equal(t, 0.17614765535108745, rand())
	require.Equal(t, 0.0704482845030725, rand())
}

func TestSeededShuffle(t *testing.T) {
	in := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	require.Equal(t, []int{9, 4, 3, 6, 7, 5, 2, 0, 1, 8}, seededShuffle(in, "2025-09-04"))
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, in, "input untouched")
	require.Equal(t, []string{"d", "c", "a", "e", "b"}, seededShuffle([]string{"a", "b", "c", "d", "e"}, "2024-01-01"))
	require.Empty(t, seededShuffle([]int{}, "x"))
}

func TestNormalize(t *testing.T) {
	var p rawProduct
	require.NoError(t, json.Unmarshal([]byte(`{
		"name": "Pac Tee",
		"image": "/img/pac.png",
		"sizes": {"s": 25, "m": "$27", "xl": 27.5},
		"colors": ["Black", {"color": " Red "}, "", 7]
	}`), &p))
	got := normalize(p)
	require.JSONEq(t, `[{"size":"S","price":"$25"},{"size":"M","price":"$27"},{"size":"XL","price":"$27.5"}]`, string(got.Sizes))
	require.Equal(t, []string{"Black", "Red"}, got.Colors)
	require.Equal(t, "Pac Tee::/img/pac.png", got.key)

	require.NoError(t, json.Unmarshal([]byte(`{"sizes":[{"size":"M","price":"$25"}]}`), &p))
	got = normalize(rawProduct{Sizes: p.Sizes})
	require.JSONEq(t, `[{"size":"M","price":"$25"}]`, string(got.Sizes))
	require.Equal(t, []string{"Black"}, got.Colors)
	require.Equal(t, "undefined::undefined", got.key)
}

func TestOrderedEntriesPutsIndexKeysFirst(t *testing.T) {
	entries := orderedEntries(json.RawMessage(`{"m":1,"10":2,"2":3,"01":4}`))
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.key)
	}
	require.Equal(t, []string{"2", "10", "m", "01"}, keys)
}

func TestParseQuery(t *testing.T) {
	svc := &Service{Now: func() time.Time { return time.Date(2026, 10, 16, 23, 0, 0, 0, time.FixedZone("X", -5*3600)) }}

	q := svc.ParseQuery(url.Values{})
	require.Equal(t, DefaultSources, q.Sources)
	require.Equal(t, 9, q.Count)
	require.Equal(t, "2026-10-17", q.Seed)

	q = svc.ParseQuery(url.Values{"sources": {" arcade , ,pop_culture"}, "count": {"500"}, "seed": {"s"}})
	require.Equal(t, []string{"arcade", "pop_culture"}, q.Sources)
	require.Equal(t, 50, q.Count)
	require.Equal(t, "s", q.Seed)

	for raw, want := range map[string]int{"0": 1, "-4": 1, "12abc": 12, "abc": 9, " 3 ": 3, "99999999999999999999": 50} {
		require.Equal(t, want, parseCount(raw), raw)
	}
}

func sourceServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	files := map[string]string{
		"/data/arcade.json": `{"products":[
			{"name":"Pac Tee","image":"/img/pac.png","sizes":{"s":25,"m":"$27"},"colors":["Black"]},
			{"name":"Ghost Tee","image":"/img/ghost.png","sizes":[{"size":"M","price":"$25"}]}
		]}`,
		"/data/4th_of_july.json": `{"products":[
			{"name":"Flag Tee","image":"/img/flag.png"},
			{"name":"Pac Tee","image":"/img/pac.png"}
		]}`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSampleMergesDedupesAndShuffles(t *testing.T) {
	var hits atomic.Int32
	srv := sourceServer(t, &hits)
	svc := &Service{HTTP: srv.Client(), Logger: zerolog.Nop()}

	got, err := svc.Sample(context.Background(), srv.URL, Query{Sources: DefaultSources, Count: 9, Seed: "2025-09-04"})
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name)
	}
	require.Equal(t, []string{"Ghost Tee", "Pac Tee", "Flag Tee"}, names)
	require.EqualValues(t, 3, hits.Load())

	got, err = svc.Sample(context.Background(), srv.URL, Query{Sources: DefaultSources, Count: 1, Seed: "2026-10-16"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Pac Tee", got[0].Name)
	require.JSONEq(t, `[{"size":"S","price":"$25"},{"size":"M","price":"$27"}]`, string(got[0].Sizes))
}

func TestHandlerCachesPerQuery(t *testing.T) {
	var hits atomic.Int32
	srv := sourceServer(t, &hits)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &Handler{
		Svc:     &Service{HTTP: srv.Client(), Cache: catalog.NewCache(client, time.Minute), Logger: zerolog.Nop()},
		BaseURL: srv.URL + "/",
	}

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/arrivals?sources=arcade&count=5&seed=2025-09-04", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, CacheControl, rec.Header().Get("Cache-Control"))

		var out struct {
			Products []Product `json:"products"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Products, 2)
	}
	require.EqualValues(t, 1, hits.Load())
	require.True(t, mr.Exists("arrivals:arcade:5:2025-09-04:"+srv.URL))
}

func namedServer(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"products":[{"name":"` + name + `","image":"/img/x.png"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandlerCacheSeparatesForwardedHosts(t *testing.T) {
	good := namedServer(t, "Good Tee")
	evil := namedServer(t, "EVIL")

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &Handler{Svc: &Service{HTTP: good.Client(), Cache: catalog.NewCache(client, time.Minute), Logger: zerolog.Nop()}}
	list := func(host string) []Product {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/arrivals?sources=arcade&count=3&seed=2025-09-04", nil)
		r.Header.Set("X-Forwarded-Host", host)
		r.Header.Set("X-Forwarded-Proto", "http")
		rec := httptest.NewRecorder()
		h.List(rec, r)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Products []Product `json:"products"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out.Products
	}

	got := list(strings.TrimPrefix(evil.URL, "http://"))
	require.Len(t, got, 1)
	require.Equal(t, "EVIL", got[0].Name)

	got = list(strings.TrimPrefix(good.URL, "http://"))
	require.Len(t, got, 1)
	require.Equal(t, "Good Tee", got[0].Name)
}

func TestSampleSkipsCacheWhenEverySourceFails(t *testing.T) {
	var down atomic.Bool
	down.Store(true)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if down.Load() {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"products":[{"name":"Back Tee","image":"/img/back.png"}]}`))
	}))
	t.Cleanup(srv.Close)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := &Service{HTTP: srv.Client(), Cache: catalog.NewCache(client, time.Minute), Logger: zerolog.Nop()}
	q := Query{Sources: []string{"arcade"}, Count: 3, Seed: "2025-09-04"}

	got, err := svc.Sample(context.Background(), srv.URL, q)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, mr.Keys())

	down.Store(false)
	got, err = svc.Sample(context.Background(), srv.URL, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Back Tee", got[0].Name)
	require.EqualValues(t, 2, hits.Load())
	require.Len(t, mr.Keys(), 1)

	_, err = svc.Sample(context.Background(), srv.URL, q)
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load())
}

func TestHandlerBaseFromForwardedHeaders(t *testing.T) {
	h := &Handler{}
	r := httptest.NewRequest(http.MethodGet, "/api/v1/arrivals", nil)
	r.Host = "internal:8080"
	require.Equal(t, "https://internal:8080", h.base(r))

	r.Header.Set("X-Forwarded-Host", "thekinda.co")
	r.Header.Set("X-Forwarded-Proto", "http")
	require.Equal(t, "http://thekinda.co", h.base(r))
}
