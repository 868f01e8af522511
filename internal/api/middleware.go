/**
 * @description
 * This file contains custom middleware for the HTTP router. Middlewares are used
 * to process requests before they reach the final handler, perfect for tasks like
 * authentication, logging, or adding context to a request.
 *
 * @dependencies
 * - context, crypto/subtle, net/http, strings: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: For bearer token validation.
 */

package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AdminIDContextKey is a custom type for the context key to avoid collisions.
type AdminIDContextKey string

const actingAdminIDKey AdminIDContextKey = "actingAdminID"

// AdminAuthMiddleware creates a middleware that authenticates admin requests.
// It accepts either a bearer JWT signed with the configured HS256 secret
// (admin id in the `sub` claim) or, for service-to-service calls, a matching
// X-Internal-Api-Key header.
func AdminAuthMiddleware(jwtSecret, internalAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalAPIKey != "" {
				provided := strings.TrimSpace(r.Header.Get("X-Internal-Api-Key"))
				if provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(internalAPIKey)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			subject, ok := claims["sub"].(string)
			if !ok {
				http.Error(w, "Admin ID not found in token", http.StatusUnauthorized)
				return
			}
			adminID, err := uuid.Parse(subject)
			if err != nil {
				http.Error(w, "Invalid admin ID in token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), actingAdminIDKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActingAdminID retrieves the authenticated admin's ID from the request
// context. It reports false for service-to-service calls authenticated with
// the internal API key.
func GetActingAdminID(ctx context.Context) (uuid.UUID, bool) {
	adminID, ok := ctx.Value(actingAdminIDKey).(uuid.UUID)
	return adminID, ok
}
