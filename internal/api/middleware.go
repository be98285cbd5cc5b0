package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"cs-simulator/internal/auth"
	"cs-simulator/pkg/httputil"

	"github.com/golang-jwt/jwt/v5"
)

// JwtAuthMiddleware verifies the access token from the Authorization header.
// If valid, it injects the UserID into the request context.
func JwtAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				log.Println("Auth Middleware: Missing or malformed Authorization header")
				httputil.RespondError(w, http.StatusUnauthorized, "Authorization header required (Expected: Bearer <token>)")
				return
			}

			claims, err := auth.ParseToken(tokenString, jwtSecret)
			if err != nil {
				log.Printf("Auth Middleware: Error parsing token: %v", err)
				respondTokenError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), auth.UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware admits both guests and members. A request with no
// Authorization header proceeds with no user identity. A request that does
// carry a bearer token must carry a valid one; presenting an expired or bad
// token is a 401, which is what signals the client to run a refresh.
func OptionalAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "Malformed Authorization header (Expected: Bearer <token>)")
				return
			}

			claims, err := auth.ParseToken(tokenString, jwtSecret)
			if err != nil {
				log.Printf("Auth Middleware: Error parsing optional token: %v", err)
				respondTokenError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), auth.UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

func respondTokenError(w http.ResponseWriter, err error) {
	if errors.Is(err, jwt.ErrTokenExpired) {
		httputil.RespondError(w, http.StatusUnauthorized, "Token has expired")
	} else if errors.Is(err, jwt.ErrTokenMalformed) {
		httputil.RespondError(w, http.StatusUnauthorized, "Malformed token")
	} else {
		httputil.RespondError(w, http.StatusUnauthorized, "Invalid token")
	}
}
