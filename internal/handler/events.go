package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/invibe/internal/auth"
	"github.com/dukerupert/invibe/internal/model"
	"github.com/dukerupert/invibe/internal/preview"
	"github.com/dukerupert/invibe/internal/store"
)

type EventHandler struct {
	events     *store.EventStore
	reconciler *preview.Reconciler
	// publicURL prefixes share links. Empty means the request's own origin.
	publicURL string
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventHandler(events *store.EventStore, reconciler *preview.Reconciler, publicURL string, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:     events,
		reconciler: reconciler,
		publicURL:  strings.TrimRight(publicURL, "/"),
		logger:     logger.With("component", "event_handler"),
		now:        time.Now,
	}
}

// List returns the signed-in user's events for ?relation=hosting|attending|past.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "sign in required")
		return
	}

	relation := model.Relation(r.URL.Query().Get("relation"))
	if relation == "" {
		relation = model.RelationHosting
	}
	if !relation.Valid() {
		writeMessage(w, http.StatusBadRequest, "relation must be hosting, attending, or past")
		return
	}

	events, err := h.events.ListForUser(r.Context(), *user, relation, h.now().Format("2006-01-02"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if events == nil {
		events = []model.PersistedEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.FetchEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Preview renders a stored event the same way a draft preview is rendered.
func (h *EventHandler) Preview(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.FetchEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	rm, err := h.reconciler.Reconcile(nil, event)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	weather := h.reconciler.Weather(r.Context(), event.Date)
	rm.Weather = &weather
	writeJSON(w, http.StatusOK, rm)
}

type guestsResponse struct {
	Guests  []model.Guest      `json:"guests"`
	Summary model.GuestSummary `json:"summary"`
}

func (h *EventHandler) Guests(w http.ResponseWriter, r *http.Request) {
	status := model.RSVPStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
		return
	}

	event, err := h.events.FetchEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	guests := model.FilterGuests(event.Guests, status)
	if guests == nil {
		guests = []model.Guest{}
	}
	writeJSON(w, http.StatusOK, guestsResponse{Guests: guests, Summary: model.SummarizeGuests(event.Guests)})
}

type inviteResponse struct {
	EventID string `json:"eventId"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	Link    string `json:"link"`
}

// Invite returns the share link for a stored event.
func (h *EventHandler) Invite(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.FetchEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	path := "/events/" + url.PathEscape(event.ID) + "/invite"
	writeJSON(w, http.StatusOK, inviteResponse{
		EventID: event.ID,
		Title:   event.Title,
		Path:    path,
		Link:    h.origin(r) + path,
	})
}

func (h *EventHandler) origin(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
