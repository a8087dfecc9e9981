package checkout

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

// Handler exposes the charge endpoint.
type Handler struct {
	Svc *Service
}

// Charge handles POST /checkout/charge.
func (h *Handler) Charge(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.ValidationError(InvalidInput, nil))
		return
	}
	res, err := h.Svc.Charge(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, res)
}
