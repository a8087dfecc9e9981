package arrivals

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

// CacheControl lets the CDN hold a day's sample.
const CacheControl = "public, max-age=300, s-maxage=900, stale-while-revalidate=600"

// Handler serves GET /arrivals.
type Handler struct {
	Svc *Service
	// BaseURL is where collection files live. Empty means the requesting host.
	BaseURL string
}

type response struct {
	Products []Product `json:"products"`
}

// List returns the seeded sample.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := h.Svc.ParseQuery(r.URL.Query())
	products, err := h.Svc.Sample(r.Context(), h.base(r), q)
	if err != nil {
		h.Svc.Logger.Error().Err(err).Msg("new-arrivals failed")
		common.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	w.Header().Set("Cache-Control", CacheControl)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response{Products: products})
}

func (h *Handler) base(r *http.Request) string {
	if h.BaseURL != "" {
		return strings.TrimRight(h.BaseURL, "/")
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "https"
	}
	return proto + "://" + host
}
