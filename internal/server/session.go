package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/invibe/internal/flow"
	"github.com/dukerupert/invibe/internal/middleware"
	"github.com/dukerupert/invibe/internal/store"
	ws "github.com/dukerupert/invibe/internal/websocket"
	"github.com/google/uuid"
)

// sessionRotator moves everything a session owns to a fresh id: stored
// values, the flow controller, and open websocket connections.
type sessionRotator struct {
	storage *store.SessionStorage
	flows   *flow.Manager
	hub     *ws.Hub
	cookie  middleware.SessionConfig
	logger  *slog.Logger
}

func (s *sessionRotator) Rotate(ctx context.Context, w http.ResponseWriter, from string) (string, error) {
	to := uuid.NewString()
	if err := s.storage.Move(ctx, from, to); err != nil {
		return "", fmt.Errorf("rotate session: %w", err)
	}
	s.flows.Rekey(from, to)
	s.hub.Rekey(from, to)
	middleware.SetSessionCookie(w, to, s.cookie)

	s.logger.Debug("session rotated", "from", from, "to", to)
	return to, nil
}
