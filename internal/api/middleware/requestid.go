package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"
	requestInfoKey  = contextKey("request_info")

	maxRequestIDLen = 128
)

// requestInfo is shared by pointer between the outer middleware and the
// authenticated routes, so values set after authentication are visible to
// the request logger.
type requestInfo struct {
	id       string
	clientID string
	userID   string
}

func requestInfoFromContext(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return info
}

// RequestIDFromContext returns the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if info := requestInfoFromContext(ctx); info != nil {
		return info.id
	}
	return ""
}

// RequestID uses the caller's X-Request-ID when it is present and sane,
// otherwise a new UUID. The id is echoed in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestInfoKey, &requestInfo{id: requestID})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
