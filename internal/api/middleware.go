/**
 * @description
 * This file contains custom middleware for the HTTP router: JWT validation
 * and role-based gating for the admin-only lifecycle endpoints. The identity
 * provider issues HS256 tokens whose `sub` claim carries the numeric user id
 * and whose `role` claim carries the user's role.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: Token parsing and validation.
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// authContextKey is a custom type for context keys to avoid collisions.
type authContextKey string

const (
	userIDKey authContextKey = "userID"
	roleKey   authContextKey = "role"
)

// RoleAdmin is the role claim value required by admin endpoints.
const RoleAdmin = "admin"

// AuthMiddleware creates a middleware that validates a bearer JWT and places
// the acting user's id and role on the request context.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				http.Error(w, "User ID not found in token", http.StatusUnauthorized)
				return
			}
			userID, err := strconv.ParseInt(sub, 10, 64)
			if err != nil {
				http.Error(w, "Invalid user ID in token", http.StatusUnauthorized)
				return
			}

			role, _ := claims["role"].(string)

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != RoleAdmin {
			http.Error(w, "Admin role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID retrieves the acting user's id from the request context.
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

// GetRole retrieves the acting user's role from the request context.
func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
