package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const organizationIDKey contextKey = "organization_id"

// OrganizationID returns the caller's organization id attached by
// JWTMiddleware, or "" when the request was not authenticated.
func OrganizationID(ctx context.Context) string {
	id, _ := ctx.Value(organizationIDKey).(string)
	return id
}

// JWTMiddleware validates the Authorization header and attaches the
// organization_id claim to the request context. Tokens are issued by the
// upstream control plane; this service only verifies them.
func JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			http.Error(w, "missing or invalid token", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		orgID, ok := claims["organization_id"].(string)
		if !ok || orgID == "" {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), organizationIDKey, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
