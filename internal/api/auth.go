package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/core"
)

const (
	detailInvalidToken = "Invalid token or token missing"
	detailUnauthorized = "Unauthorized"
	bearerScheme       = "Bearer"
)

type tokenKey struct{}

// TokenFrom returns the bearer token accepted for this request.
func TokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok
}

// ParseBearer extracts the token from an Authorization header value. The
// header must be exactly "Bearer <token>" with a non-empty token and no
// other whitespace.
func ParseBearer(header string) (string, error) {
	if header == "" || !strings.HasPrefix(header, bearerScheme) {
		return "", core.ErrAuth(core.CodeMissingToken, detailInvalidToken)
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != bearerScheme || token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", core.ErrAuth(core.CodeMalformedAuth, detailInvalidToken)
	}
	return token, nil
}

// RequireBearer rejects requests whose bearer token is absent, malformed or
// different from expected. An empty expected token rejects everything.
func RequireBearer(expected string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ParseBearer(r.Header.Get("Authorization"))
			if err != nil {
				writeDomainError(w, err)
				return
			}

			if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				writeDomainError(w, core.ErrForbidden(core.CodeTokenMismatch, detailUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
