package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aroma-notes/api/internal/platform/httpx"
)

// RequireFirebaseAuth verifies the bearer token and, when roles are given,
// requires at least one of them. The verified identity is attached to the
// request context.
func RequireFirebaseAuth(verifier TokenVerifier, roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(w, r, http.StatusUnauthorized, "missing_token", "authorization bearer token is required")
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				writeVerifyError(w, r, err)
				return
			}

			if len(roles) > 0 {
				allowed := false
				for _, role := range roles {
					if identity.HasRole(role) {
						allowed = true
						break
					}
				}
				if !allowed {
					httpx.WriteError(w, r, http.StatusForbidden, "forbidden", "insufficient role")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		httpx.WriteError(w, r, http.StatusUnauthorized, "token_expired", "credentials expired, sign in again")
	case errors.Is(err, ErrUserDisabled):
		httpx.WriteError(w, r, http.StatusForbidden, "account_disabled", "this account has been disabled")
	default:
		httpx.WriteError(w, r, http.StatusUnauthorized, "invalid_token", "credentials could not be verified")
	}
}
