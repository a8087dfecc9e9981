package promo

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

// VersionHeader identifies the deployed build on every promo response.
const VersionHeader = "X-Function-Version"

// Handler serves the promo check endpoint.
type Handler struct {
	Index   *Index
	Checker Checker
	Version string
}

type checkResponse struct {
	Valid         bool     `json:"valid"`
	Error         string   `json:"error,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	MinSubtotal   *float64 `json:"minSubtotal,omitempty"`
	UsageEnforced bool     `json:"usageEnforced"`
}

// Check validates ?code and ?email, or returns the inventory with ?debug=1.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(VersionHeader, h.Version)
	q := r.URL.Query()

	if debug := q.Get("debug"); debug == "1" || debug == "true" {
		if h.Index == nil {
			common.JSON(w, http.StatusOK, Inventory{Version: h.Version})
			return
		}
		common.JSON(w, http.StatusOK, h.Index.Inventory())
		return
	}

	enforced := h.Checker.UsageEnforced()
	code := q.Get("code")
	if strings.TrimSpace(code) == "" {
		common.JSON(w, http.StatusBadRequest, checkResponse{Error: "Missing promo code.", UsageEnforced: enforced})
		return
	}

	res, err := h.Checker.Lookup(r.Context(), code, q.Get("email"))
	switch {
	case err == nil:
		common.JSON(w, http.StatusOK, checkResponse{
			Valid:         true,
			Amount:        &res.Amount,
			MinSubtotal:   &res.MinSubtotal,
			UsageEnforced: res.UsageEnforced,
		})
	case errors.Is(err, ErrNotFound):
		msg, _ := Message(err)
		if h.Index != nil && h.Index.FileCount() == 0 {
			msg += " (no promo files bundled?)"
		}
		common.JSON(w, http.StatusNotFound, checkResponse{Error: msg, UsageEnforced: enforced})
	case IsRejection(err):
		msg, _ := Message(err)
		common.JSON(w, http.StatusOK, checkResponse{Error: msg, UsageEnforced: enforced})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("promo check failed")
		common.JSON(w, http.StatusInternalServerError, checkResponse{Error: "Internal error", UsageEnforced: enforced})
	}
}
