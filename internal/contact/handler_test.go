package contact_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kinda-storefront/internal/common"
	"github.com/noah-isme/kinda-storefront/internal/contact"
	"github.com/noah-isme/kinda-storefront/internal/notify"
)

func newHandler(mail *common.InMemoryEmail) *contact.Handler {
	return &contact.Handler{
		Relay:  notify.ContactRelay{Mail: mail, FromName: "KindaShirty Contact Form", Inbox: "hello@thekinda.co"},
		Logger: zerolog.Nop(),
	}
}

func TestSubmitRelaysMessage(t *testing.T) {
	mail := &common.InMemoryEmail{}
	h := newHandler(mail)

	body := `{"name":"Ada","email":"ada@x.com","subject":"Sizing","message":"Hi\nDo you have 4XL?"}`
	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"Message sent successfully"}`, rec.Body.String())

	sent := mail.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"hello@thekinda.co"}, sent[0].To)
	require.Equal(t, "KindaShirty Contact Form", sent[0].FromName)
	require.Equal(t, "ada@x.com", sent[0].ReplyTo)
	require.Equal(t, "New Contact Form Submission: Sizing", sent[0].Subject)
	require.Contains(t, sent[0].HTML, "Hi<br>Do you have 4XL?")
}

func TestSubmitWithoutSubject(t *testing.T) {
	mail := &common.InMemoryEmail{}
	h := newHandler(mail)

	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(`{"name":"Ada","message":"hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "New Contact Form Submission: No Subject", mail.Sent()[0].Subject)
}

func TestSubmitRejectsOtherMethods(t *testing.T) {
	mail := &common.InMemoryEmail{}
	h := newHandler(mail)

	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodGet, "/api/v1/contact", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, rec.Body.String(), "Method Not Allowed")
	require.Empty(t, mail.Sent())
}

func TestSubmitSendFailure(t *testing.T) {
	mail := &common.InMemoryEmail{Err: errors.New("smtp: 535 auth failed")}
	h := newHandler(mail)

	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(`{"message":"x"}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Failed to send message"}`, rec.Body.String())
}

func TestSubmitBadJSON(t *testing.T) {
	h := newHandler(&common.InMemoryEmail{})
	rec := httptest.NewRecorder()
	h.Submit(rec, httptest.NewRequest(http.MethodPost, "/api/v1/contact", bytes.NewBufferString(`{`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
