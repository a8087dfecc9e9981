// Package arrivals builds the daily "New Arrivals" selection from the static
// collection files the storefront already serves.
package arrivals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/kinda-storefront/internal/catalog"
	"github.com/noah-isme/kinda-storefront/internal/obs"
)

// DefaultSources are the collections sampled when none are requested.
var DefaultSources = []string{"arcade", "4th_of_july", "pop_culture"}

const (
	defaultCount = 9
	maxCount     = 50
)

// Query selects a sample.
type Query struct {
	Sources []string
	Count   int
	Seed    string
}

// Service fetches, merges and samples collection files.
type Service struct {
	HTTP   *http.Client
	Cache  *catalog.Cache
	Logger zerolog.Logger
	Now    func() time.Time
}

// ParseQuery applies defaults: count 9 clamped to [1,50], the default
// sources, and today's UTC date as the seed.
func (s *Service) ParseQuery(values url.Values) Query {
	q := Query{Count: parseCount(values.Get("count"))}
	for _, src := range strings.Split(values.Get("sources"), ",") {
		if src = strings.TrimSpace(src); src != "" {
			q.Sources = append(q.Sources, src)
		}
	}
	if values.Get("sources") == "" {
		q.Sources = append([]string(nil), DefaultSources...)
	}
	q.Seed = values.Get("seed")
	if q.Seed == "" {
		q.Seed = s.now().UTC().Format("2006-01-02")
	}
	return q
}

// parseCount reads a leading integer the way a lenient query parser would.
// Input with no digits falls back to the default.
func parseCount(raw string) int {
	raw = strings.TrimSpace(raw)
	end := 0
	if end < len(raw) && (raw[end] == '-' || raw[end] == '+') {
		end++
	}
	start := end
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	n := defaultCount
	if end > start {
		if v, err := strconv.Atoi(raw[:end]); err == nil {
			n = v
		} else if raw[0] == '-' {
			n = 1
		} else {
			n = maxCount
		}
	}
	return max(1, min(maxCount, n))
}

// errNoSources marks a sample where every source failed. Such results are
// served but never cached.
var errNoSources = errors.New("arrivals: every source failed")

// Sample returns up to q.Count products from base, cached per base and query.
func (s *Service) Sample(ctx context.Context, base string, q Query) ([]Product, error) {
	key := fmt.Sprintf("arrivals:%s:%d:%s:%s", strings.Join(q.Sources, ","), q.Count, q.Seed, base)
	products, err := catalog.Fetch(ctx, s.Cache, key, func(ctx context.Context) ([]Product, error) {
		return s.sample(ctx, base, q)
	})
	if errors.Is(err, errNoSources) {
		return []Product{}, nil
	}
	return products, err
}

func (s *Service) sample(ctx context.Context, base string, q Query) ([]Product, error) {
	perSource := make([][]Product, len(q.Sources))
	var fetched atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range q.Sources {
		i, src := i, src
		g.Go(func() error {
			products, err := s.fetch(gctx, base, src)
			if err != nil {
				obs.Inc(obs.ArrivalsSourceTotal, "error")
				s.Logger.Warn().Err(err).Str("source", src).Msg("new-arrivals source failed")
				return nil
			}
			obs.Inc(obs.ArrivalsSourceTotal, "ok")
			perSource[i] = products
			fetched.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	if len(q.Sources) > 0 && fetched.Load() == 0 {
		return nil, errNoSources
	}

	seen := make(map[string]struct{})
	unique := make([]Product, 0)
	for _, products := range perSource {
		for _, p := range products {
			if _, dup := seen[p.key]; dup {
				continue
			}
			seen[p.key] = struct{}{}
			unique = append(unique, p)
		}
	}

	shuffled := seededShuffle(unique, q.Seed)
	return shuffled[:min(q.Count, len(shuffled))], nil
}

func (s *Service) fetch(ctx context.Context, base, source string) ([]Product, error) {
	u := base + "/data/" + url.PathEscape(source) + ".json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	var file sourceFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	products := make([]Product, 0, len(file.Products))
	for _, p := range file.Products {
		products = append(products, normalize(p))
	}
	return products, nil
}

func (s *Service) client() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return http.DefaultClient
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
