package handler

import (
	"net/http"

	"github.com/dukerupert/invibe/internal/background"
)

type BackgroundHandler struct {
	catalog *background.Catalog
}

func NewBackgroundHandler(catalog *background.Catalog) *BackgroundHandler {
	return &BackgroundHandler{catalog: catalog}
}

// Catalog lists templates, recent designs, and suggested prompts.
func (h *BackgroundHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog)
}
