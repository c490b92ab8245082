package middleware

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/teambrain/internal/domain"
)

// UserIDHeader carries the id of the end user a client acts for.
const UserIDHeader = "X-User-ID"

const maxUserIDLen = 256

type contextKey string

const (
	clientContextKey contextKey = "api_client"
	userContextKey   contextKey = "user_id"
)

func ClientFromContext(ctx context.Context) *domain.APIClient {
	c, _ := ctx.Value(clientContextKey).(*domain.APIClient)
	return c
}

// UserIDFromContext returns the forwarded end-user id, or "" on
// unauthenticated routes.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userContextKey).(string)
	return id
}

// WithUser returns ctx carrying client and userID the way APIKeyAuth leaves
// them.
func WithUser(ctx context.Context, client *domain.APIClient, userID string) context.Context {
	ctx = context.WithValue(ctx, clientContextKey, client)
	return context.WithValue(ctx, userContextKey, userID)
}

// APIKeyAuth authenticates the calling client by bearer API key and requires
// the X-User-ID header naming the end user.
func APIKeyAuth(clients domain.APIClientStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			client, err := clients.GetByAPIKeyHash(r.Context(), HashAPIKey(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "missing "+UserIDHeader+" header")
				return
			}
			if len(userID) > maxUserIDLen {
				writeError(w, http.StatusBadRequest, UserIDHeader+" header too long")
				return
			}

			if info := requestInfoFromContext(r.Context()); info != nil {
				info.clientID = client.ID.String()
				info.userID = userID
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), client, userID)))
		})
	}
}

// GenerateAPIKey returns a fresh client key. Only its hash is ever stored.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "tb_" + hex.EncodeToString(b), nil
}

// HashAPIKey returns the stored form of an API key.
func HashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
