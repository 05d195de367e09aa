package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"courseboard/content"
)

// respondJSON sends JSON responses (for our REST endpoints).
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

// respondRenderError maps pipeline errors to status codes. A render the
// client abandoned gets no response.
func respondRenderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrEmptyContent):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, content.ErrSuperseded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled):
		log.WithError(err).Debug("Render canceled by client")
	default:
		log.WithError(err).Error("Failed to render content")
		http.Error(w, "Failed to render content", http.StatusInternalServerError)
	}
}
