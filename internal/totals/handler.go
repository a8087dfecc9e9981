package totals

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/pricing"
)

// Handler exposes the preview endpoint.
type Handler struct {
	Svc *Service
}

type previewResponse struct {
	IsCA       bool    `json:"isCA"`
	ItemsGross float64 `json:"itemsGross"`
	Discount   float64 `json:"discount"`
	Shipping   float64 `json:"shipping"`
	Tax        float64 `json:"tax"`
	Total      float64 `json:"total"`
}

// Preview handles POST /totals/preview. Amounts are returned in dollars.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.ValidationError("invalid payload", nil))
		return
	}
	res, err := h.Svc.Preview(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	t := res.Totals
	common.JSON(w, http.StatusOK, previewResponse{
		IsCA:       res.TaxEnabled,
		ItemsGross: pricing.Dollars(t.Subtotal),
		Discount:   pricing.Dollars(t.Discount),
		Shipping:   pricing.Dollars(t.Shipping),
		Tax:        pricing.Dollars(t.Tax),
		Total:      pricing.Dollars(t.Total),
	})
}
