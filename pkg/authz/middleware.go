package authz

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Authenticate returns middleware that verifies the bearer access token and
// attaches the caller's Principal to the request context. When resolver is
// non-nil the principal is reloaded from the accounts table so role and
// region changes take effect before the token expires.
func Authenticate(issuer *TokenIssuer, resolver PrincipalResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
				return
			}

			claims, err := issuer.VerifyAccess(token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}

			p := Principal{
				EmployeeID: claims.Subject,
				Name:       claims.Name,
				Role:       claims.Role,
				Region:     claims.Region,
			}
			if resolver != nil {
				p, err = resolver.ResolvePrincipal(r.Context(), claims.Subject)
				if errors.Is(err, ErrUnknownPrincipal) {
					writeAuthError(w, http.StatusUnauthorized, "unauthorized", "account no longer exists")
					return
				}
				if err != nil {
					logger.Error("resolve principal", "employee_id", claims.Subject, "error", err)
					writeAuthError(w, http.StatusInternalServerError, "internal_error", "failed to load account")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole returns middleware that only admits principals holding one of
// the given roles. It must run after Authenticate.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "authentication credentials were not provided")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeAuthError(w, http.StatusForbidden, "forbidden", "role "+string(p.Role)+" may not perform this action")
		})
	}
}

// extractBearerToken extracts the token from an "Authorization: Bearer <token>" header.
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
