package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
	"github.com/dukerupert/invibe/internal/auth"
)

// HandleWebSocket upgrades the request and attaches the connection to the
// caller's session.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := auth.SessionID(r.Context())
		if sessionID == "" {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "session", sessionID)
		NewClient(hub, conn, sessionID).Run(r.Context())
		logger.Debug("websocket closed", "session", sessionID)
	}
}
