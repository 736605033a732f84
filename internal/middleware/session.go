package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/invibe/internal/auth"
	"github.com/google/uuid"
)

// SessionCookieName carries the authoring session id.
const SessionCookieName = "invibe_session"

// MarkerReader reads a value from session storage.
type MarkerReader interface {
	Get(ctx context.Context, sessionID, key string) (string, bool, error)
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	TTL    time.Duration
	Secure bool
}

// Session makes sure every request has a session id, issuing a cookie when
// the browser has none, and resolves the signed-in user from the stored
// marker. A bad or expired marker leaves the request anonymous.
func Session(storage MarkerReader, signer *auth.Signer, cfg SessionConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				if id, err := uuid.Parse(cookie.Value); err == nil {
					sessionID = id.String()
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
				SetSessionCookie(w, sessionID, cfg)
			}

			sc := auth.SessionContext{SessionID: sessionID}

			marker, ok, err := storage.Get(r.Context(), sessionID, auth.MarkerKey)
			switch {
			case err != nil:
				logger.Error("read user marker", "session", sessionID, "error", err)
			case ok:
				u, err := signer.Verify(marker)
				if err != nil {
					logger.Debug("ignoring user marker", "session", sessionID, "error", err)
				} else {
					sc.User = u
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sc)))
		})
	}
}

// SetSessionCookie issues sessionID to the browser.
func SetSessionCookie(w http.ResponseWriter, sessionID string, cfg SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsSignedIn(r.Context()) {
			writeError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
