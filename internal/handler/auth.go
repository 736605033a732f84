package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/invibe/internal/auth"
	"github.com/dukerupert/invibe/internal/model"
)

// Authenticator checks credentials with the auth service.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.LoginResult, error)
}

// SessionStore is the slice of session storage the auth endpoints write.
type SessionStore interface {
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}

// SessionRotator moves a session to a fresh id and hands the new id to the
// client.
type SessionRotator interface {
	Rotate(ctx context.Context, w http.ResponseWriter, from string) (string, error)
}

type AuthHandler struct {
	authn   Authenticator
	storage SessionStore
	rotator SessionRotator
	signer  *auth.Signer
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. authn may be nil when no auth
// service is configured; login then answers 503.
func NewAuthHandler(authn Authenticator, storage SessionStore, rotator SessionRotator, signer *auth.Signer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authn:   authn,
		storage: storage,
		rotator: rotator,
		signer:  signer,
		logger:  logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User model.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.authn == nil {
		writeMessage(w, http.StatusServiceUnavailable, "login is not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	verr := &model.ValidationError{}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		verr.Add("email", "is required")
	}
	if req.Password == "" {
		verr.Add("password", "is required")
	}
	if err := verr.Err(); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.authn.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login rejected", "email", req.Email, "error", err)
		writeError(w, h.logger, err)
		return
	}

	marker, err := h.signer.Sign(res.User)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// A signed-in session never keeps the id it had while anonymous.
	sessionID, err := h.rotator.Rotate(r.Context(), w, auth.SessionID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.storage.Set(r.Context(), sessionID, auth.MarkerKey, marker); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.storage.Set(r.Context(), sessionID, auth.AccessTokenKey, res.AccessToken); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user signed in", "user_id", res.User.ID)
	writeJSON(w, http.StatusOK, userResponse{User: res.User})
}

// Logout forgets the signed-in user. The draft is kept.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := auth.SessionID(r.Context())
	for _, key := range []string{auth.MarkerKey, auth.AccessTokenKey} {
		if err := h.storage.Delete(r.Context(), sessionID, key); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "sign in required")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: *user})
}
