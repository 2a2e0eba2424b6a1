// Package session assigns every browser a stable id stored in a signed
// cookie. The id keys the server-side workspace.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

// CookieName is the session cookie name.
const CookieName = "leapmap"

const idKey = "id"

type ctxKey struct{}

// NewCookieStore returns a cookie store whose cookies live for maxAge.
func NewCookieStore(secret string, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// Middleware loads the session id, minting and saving a new one when the
// cookie is missing or unreadable, and stores it in the request context.
func Middleware(store sessions.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A decode error still yields a fresh session.
			sess, err := store.Get(r, CookieName)
			if err != nil {
				logger.Debug("discarding unreadable session", "error", err)
			}

			id, _ := sess.Values[idKey].(string)
			if id == "" {
				id = uuid.NewString()
				sess.Values[idKey] = id
				if err := sess.Save(r, w); err != nil {
					logger.Error("failed to save session", "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// WithID returns a context carrying a session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ID returns the session id from ctx, or "" when none is set.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
