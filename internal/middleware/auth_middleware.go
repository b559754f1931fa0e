package middleware

import (
	"PetAdoptAPI/internal/helper"
	"PetAdoptAPI/internal/service"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserContextKey  contextKey = "userContext"
	TokenContextKey contextKey = "tokenContext"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) VerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		m.authenticate(w, r, next, parts[1])
	})
}

// VerifyWSToken reads the token from the query string since browsers cannot set headers on websocket upgrades.
func (m *AuthMiddleware) VerifyWSToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			helper.WriteError(w, helper.NewUnauthorizedError(""))
			return
		}

		m.authenticate(w, r, next, tokenString)
	})
}

func (m *AuthMiddleware) authenticate(w http.ResponseWriter, r *http.Request, next http.Handler, tokenString string) {
	userContext, err := m.authService.VerifyUser(r.Context(), tokenString)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	ctx := context.WithValue(r.Context(), UserContextKey, userContext)
	ctx = context.WithValue(ctx, TokenContextKey, tokenString)
	next.ServeHTTP(w, r.WithContext(ctx))
}
