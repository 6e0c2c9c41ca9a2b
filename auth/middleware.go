package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey struct{}

// WithEmail stores the authenticated email on ctx.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

// EmailFromContext returns the email Middleware authenticated.
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(ctxKey{}).(string)
	return email, ok && email != ""
}

// Middleware rejects requests without a valid bearer token. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted
// as well.
func (s *TokenService) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing credentials", http.StatusUnauthorized)
			return
		}
		email, err := s.Verify(token)
		if err != nil {
			http.Error(w, "could not validate credentials", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}
