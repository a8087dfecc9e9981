package security

import (
	"net/http"
	"strconv"
	"strings"
)

// Headers sets hardening headers on API responses. The default content
// security policy denies every source.
type Headers struct {
	Enable                bool
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	// Overrides replaces individual defaults. An empty value drops the header.
	Overrides map[string]string
}

var baseHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
}

// Middleware applies the header set. Strict-Transport-Security is only sent
// for TLS requests, including TLS terminated at a proxy.
func (h Headers) Middleware(next http.Handler) http.Handler {
	if !h.Enable {
		return next
	}
	set := make(map[string]string, len(baseHeaders)+len(h.Overrides))
	for k, v := range baseHeaders {
		set[k] = v
	}
	for k, v := range h.Overrides {
		if v == "" {
			delete(set, http.CanonicalHeaderKey(k))
			continue
		}
		set[http.CanonicalHeaderKey(k)] = v
	}
	hsts := h.hstsValue()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for k, v := range set {
			out.Set(k, v)
		}
		if hsts != "" && overTLS(r) {
			out.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

func (h Headers) hstsValue() string {
	if !h.EnableHSTS {
		return ""
	}
	maxAge := h.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 31536000
	}
	value := "max-age=" + strconv.Itoa(maxAge)
	if h.HSTSIncludeSubdomains {
		value += "; includeSubDomains"
	}
	return value
}

func overTLS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
