package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/invibe/internal/auth"
	"github.com/dukerupert/invibe/internal/background"
	"github.com/dukerupert/invibe/internal/draft"
	"github.com/dukerupert/invibe/internal/flow"
	"github.com/dukerupert/invibe/internal/model"
)

type DraftHandler struct {
	flows          *flow.Manager
	catalog        *background.Catalog
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewDraftHandler(flows *flow.Manager, catalog *background.Catalog, maxUploadBytes int64, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		flows:          flows,
		catalog:        catalog,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "draft_handler"),
	}
}

type draftResponse struct {
	Draft           model.EventDraft `json:"draft"`
	State           flow.State       `json:"state"`
	BackgroundStyle string           `json:"backgroundStyle"`
}

type renderResponse struct {
	Preview model.RenderModel `json:"preview"`
	State   flow.State        `json:"state"`
}

func (h *DraftHandler) controller(r *http.Request) *flow.Controller {
	return h.flows.Controller(auth.SessionID(r.Context()))
}

func (h *DraftHandler) respondDraft(w http.ResponseWriter, c *flow.Controller, d model.EventDraft) {
	writeJSON(w, http.StatusOK, draftResponse{
		Draft:           d,
		State:           c.State(),
		BackgroundStyle: h.catalog.Style(d.Background),
	})
}

// Get returns the session's draft, starting a new one if needed.
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r)
	d, err := c.Draft(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondDraft(w, c, d)
}

type setFieldRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (h *DraftHandler) SetField(w http.ResponseWriter, r *http.Request) {
	var req setFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	field, ok := model.ParseField(req.Field)
	if !ok {
		writeError(w, h.logger, fmt.Errorf("%q: %w", req.Field, model.ErrUnknownField))
		return
	}
	value, err := decodeFieldValue(field, req.Value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	c := h.controller(r)
	d, err := c.SetField(r.Context(), field, value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondDraft(w, c, d)
}

type templateRequest struct {
	ID string `json:"id"`
}

func (h *DraftHandler) SelectTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c := h.controller(r)
	d, err := c.SelectTemplate(r.Context(), req.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondDraft(w, c, d)
}

// Upload accepts a multipart form with the image in "file".
func (h *DraftHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, h.logger, fmt.Errorf("upload too large: %w", model.ErrUnreadableFile))
			return
		}
		writeError(w, h.logger, fmt.Errorf("missing file: %w", model.ErrUnreadableFile))
		return
	}
	defer file.Close()

	c := h.controller(r)
	d, err := c.Upload(r.Context(), file, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondDraft(w, c, d)
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Token  flow.Token            `json:"token"`
	Status flow.GenerationStatus `json:"status"`
}

// Generate starts a generation and answers 202; the result arrives over the
// websocket or via Generation.
func (h *DraftHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c := h.controller(r)
	tok, err := c.StartGeneration(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, generateResponse{Token: tok, Status: c.GenerationStatus()})
}

func (h *DraftHandler) Generation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller(r).GenerationStatus())
}

// Render shows the draft as it would appear, without changing state.
func (h *DraftHandler) Render(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r)
	rm, err := c.Render(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Preview: rm, State: c.State()})
}

func (h *DraftHandler) Preview(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r)
	rm, err := c.Preview(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Preview: rm, State: c.State()})
}

func (h *DraftHandler) BackToEdit(w http.ResponseWriter, r *http.Request) {
	c := h.controller(r)
	if err := c.BackToEdit(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]flow.State{"state": c.State()})
}

// Save creates the event for the signed-in user.
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := auth.User(r.Context())
	if user == nil {
		writeMessage(w, http.StatusUnauthorized, "sign in required")
		return
	}

	c := h.controller(r)
	saved, err := c.Save(r.Context(), model.Host{ID: user.ID, Name: user.Email, Email: user.Email})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

type cancelResponse struct {
	Cancelled bool       `json:"cancelled"`
	State     flow.State `json:"state"`
}

func (h *DraftHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c := h.controller(r)
	cancelled, err := c.Cancel(r.Context(), req.Confirm)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: cancelled, State: c.State()})
}

func decodeFieldValue(field model.Field, raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: missing value: %w", field, model.ErrUnknownField)
	}
	return draft.DecodeValue(field, raw)
}
