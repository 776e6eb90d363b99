// internal/auth/middleware.go

package auth

import (
    "context"
    "net/http"
    "strings"

    "github.com/imadgeboyega/matchup-backend/internal/common/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenValidator is the part of Service the middleware needs
type TokenValidator interface {
    ValidateToken(ctx context.Context, token string) (*utils.JWTClaims, error)
}

// Middleware provides authentication middleware
type Middleware struct {
    validator TokenValidator
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(validator TokenValidator) *Middleware {
    return &Middleware{validator: validator}
}

// Authenticate protects routes: it verifies the bearer token and adds the
// claims to the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        token := extractToken(r)
        if token == "" {
            utils.ErrorResponse(w, "Missing or invalid authorization header", http.StatusUnauthorized)
            return
        }

        claims, err := m.validator.ValidateToken(r.Context(), token)
        if err != nil {
            utils.ErrorResponse(w, "Invalid or expired token", http.StatusUnauthorized)
            return
        }

        if claims.Type != utils.TokenTypeAccess {
            utils.ErrorResponse(w, "Invalid token type", http.StatusUnauthorized)
            return
        }

        next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
    })
}

// RequireAdmin must run after Authenticate
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        claims, ok := GetClaimsFromContext(r.Context())
        if !ok {
            utils.ErrorResponse(w, "Unauthorized", http.StatusUnauthorized)
            return
        }
        if !IsAdminType(claims.UserType) {
            utils.ErrorResponse(w, "Admin access required", http.StatusForbidden)
            return
        }
        next.ServeHTTP(w, r)
    })
}

// extractToken reads "Authorization: Bearer <token>". Websocket upgrades may
// pass the token as ?token= because browsers cannot set headers there.
func extractToken(r *http.Request) string {
    authHeader := r.Header.Get("Authorization")
    if authHeader != "" {
        parts := strings.Split(authHeader, " ")
        if len(parts) != 2 || parts[0] != "Bearer" {
            return ""
        }
        return parts[1]
    }

    if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
        return r.URL.Query().Get("token")
    }
    return ""
}

// ContextWithClaims stores claims in ctx
func ContextWithClaims(ctx context.Context, claims *utils.JWTClaims) context.Context {
    return context.WithValue(ctx, claimsKey, claims)
}

// GetClaimsFromContext returns the authenticated claims
func GetClaimsFromContext(ctx context.Context) (*utils.JWTClaims, bool) {
    claims, ok := ctx.Value(claimsKey).(*utils.JWTClaims)
    return claims, ok && claims != nil
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
    claims, ok := GetClaimsFromContext(ctx)
    if !ok {
        return 0, false
    }
    return claims.UserID, true
}

// IsAdminContext reports whether the caller is an admin
func IsAdminContext(ctx context.Context) bool {
    claims, ok := GetClaimsFromContext(ctx)
    return ok && IsAdminType(claims.UserType)
}
