package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/serisow/knowbase/config"
	"github.com/serisow/knowbase/knowledge"
)

type StatusHandler struct {
	state    *knowledge.AppState
	settings *config.Settings
	logger   *slog.Logger
}

func NewStatusHandler(state *knowledge.AppState, settings *config.Settings, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		state:    state,
		settings: settings,
		logger:   logger,
	}
}

// Status reports the configured flag, the chat single-flight flag and the
// current transient upload error, if any.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"configured": h.settings.Configured(),
		"answering":  h.state.Answering(),
		"last_error": h.state.LastError(),
	})
}

// DismissError clears the transient upload error banner.
func (h *StatusHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.state.DismissError()
	w.WriteHeader(http.StatusNoContent)
}
