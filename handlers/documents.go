package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/serisow/knowbase/knowledge"
)

type DocumentsHandler struct {
	state  *knowledge.AppState
	logger *slog.Logger
}

func NewDocumentsHandler(state *knowledge.AppState, logger *slog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		state:  state,
		logger: logger,
	}
}

// List returns the registry snapshot, most-recent-first. Documents still
// processing appear with empty content.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"documents": h.state.Documents(),
	})
}
