// Package session assigns a stable browsing-session identifier to every
// visitor via a cookie. Cart contents and menu selections are keyed by it.
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cedarhouse/menu-api/internal/platform/requestctx"
)

// Options configure the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Middleware reads the session cookie, minting a fresh identifier when the
// cookie is absent or malformed, and records it on the request context.
func Middleware(opts Options) func(http.Handler) http.Handler {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = "menu_session"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cookie, err := r.Cookie(cookieName); err == nil {
				id = normalizeID(cookie.Value)
			}
			if id == "" {
				id = ulid.Make().String()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(ttl / time.Second),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := requestctx.WithSessionID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the session identifier recorded by Middleware.
func FromContext(ctx context.Context) string {
	return requestctx.SessionID(ctx)
}

func normalizeID(value string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if _, err := ulid.ParseStrict(trimmed); err != nil {
		return ""
	}
	return trimmed
}
