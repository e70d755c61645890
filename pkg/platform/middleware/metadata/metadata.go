package metadata

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"bgv/pkg/requestcontext"
)

// Header names read by RequestMetadata.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderActor     = "X-Actor"
)

// RequestMetadata extracts request id, acting user and client IP and adds them
// to the context. A request id is minted when the caller did not send one.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := r.Context()
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))
		if actor := strings.TrimSpace(r.Header.Get(HeaderActor)); actor != "" {
			ctx = requestcontext.WithActor(ctx, actor)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}
