package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/invibe/internal/authclient"
	"github.com/dukerupert/invibe/internal/model"
)

type errorBody struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps a domain error onto a status code. Unrecognized errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: verr.Fields})
		return
	}

	var lerr *authclient.LoginError
	if errors.As(err, &lerr) {
		status := http.StatusBadGateway
		if lerr.StatusCode >= 400 && lerr.StatusCode < 500 {
			status = http.StatusUnauthorized
		}
		writeMessage(w, status, lerr.Message)
		return
	}

	switch {
	case errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrUnknownTemplate),
		errors.Is(err, model.ErrInvalidBackground),
		errors.Is(err, model.ErrUnreadableFile):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrNothingToRender):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, model.ErrBusy):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrGenerationFailed), errors.Is(err, model.ErrCreateFailed):
		logger.Warn("upstream failure", "error", err)
		writeMessage(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
