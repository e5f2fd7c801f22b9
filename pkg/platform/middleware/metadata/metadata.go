package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"accueil/pkg/requestcontext"
)

// ClientMetadata extracts client IP address, User-Agent and a platform label
// from the request and adds them to the context for use by handlers and
// services. This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, Platform(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Platform reduces a User-Agent to a short label: the operating system when
// the agent reports one, "bot" for crawlers, "unknown" otherwise.
func Platform(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return "unknown"
	}
	ua := useragent.New(userAgent)
	if ua.Bot() {
		return "bot"
	}
	if os := strings.TrimSpace(ua.OS()); os != "" {
		return os
	}
	if p := strings.TrimSpace(ua.Platform()); p != "" {
		return p
	}
	return "unknown"
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For may list several hops; the first is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port".
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}

	return "unknown"
}
