package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"RocketShoes/pkg/kit"
)

const CookieName = "rocketshoes_session"

type ctxKey string

const (
	sessionKey ctxKey = "session_id"
	newKey     ctxKey = "session_new"
)

func IDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionKey).(string)
	return v, ok && v != ""
}

func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// IsNew reports whether the session was issued by this request, so nothing
// can be stored under it yet.
func IsNew(ctx context.Context) bool {
	v, _ := ctx.Value(newKey).(bool)
	return v
}

// Middleware resolves the caller's session from the cookie or a bearer
// token. Callers without a valid one get a fresh session and cookie.
func Middleware(tm *TokenMaker, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := tm.Parse(tokenFrom(r)); err == nil {
				next.ServeHTTP(w, r.WithContext(WithID(r.Context(), claims.SessionID)))
				return
			}

			id := uuid.NewString()
			tok, err := tm.New(id)
			if err != nil {
				log.Error("session token issue", zap.Error(err))
				kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    tok,
				Path:     "/",
				MaxAge:   int(tm.ttl.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			ctx := context.WithValue(WithID(r.Context(), id), newKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Key is the cart slot key for a session.
func Key(prefix, sessionID string) string {
	return prefix + ":" + sessionID
}
