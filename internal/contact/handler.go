// Package contact relays storefront contact form submissions to the store
// inbox.
package contact

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/notify"
)

// Relay forwards one submission. notify.ContactRelay satisfies it.
type Relay interface {
	Relay(ctx context.Context, msg notify.ContactMessage) error
}

// Submission is the form body.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Handler serves POST /contact.
type Handler struct {
	Relay  Relay
	Logger zerolog.Logger
}

// Submit relays the form. Non-POST requests get 405.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var in Submission
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.WriteError(w, common.ValidationError("invalid payload", nil))
		return
	}

	err := h.Relay.Relay(r.Context(), notify.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	})
	if err != nil {
		h.Logger.Error().Err(err).Msg("contact relay failed")
		common.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to send message"})
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Message sent successfully"})
}
