package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORS allows the panel to be driven from the listed browser origins. "*" allows any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS headers are only sent to allowed origins
			if origin := matchOrigin(r.Header.Get("Origin"), allowedOrigins); origin != "" {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
				// the panel reads the request id of failed calls
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				h.Set("Access-Control-Max-Age", "3600")
				// a per-origin answer must not be cached for other origins
				if origin != "*" {
					h.Add("Vary", "Origin")
				}
			}

			// Preflight requests end here
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOrigin returns the value of Access-Control-Allow-Origin for origin,
// "*" when every origin is allowed, or an empty string when origin is not allowed
func matchOrigin(origin string, allowed []string) string {
	// Same-origin and non-browser requests carry no Origin header
	if origin == "" {
		return ""
	}

	// Check if all origins are allowed
	if slices.Contains(allowed, "*") {
		return "*"
	}

	// Origins are compared case-insensitively
	if slices.ContainsFunc(allowed, func(a string) bool { return strings.EqualFold(a, origin) }) {
		return origin
	}

	// Origin not allowed
	return ""
}
