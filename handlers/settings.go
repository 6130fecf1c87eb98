package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/serisow/knowbase/config"
)

type SettingsRequest struct {
	DatabaseURL string `json:"database_url"`
	APIKey      string `json:"api_key"`
}

type SettingsHandler struct {
	settings *config.Settings
	logger   *slog.Logger
}

func NewSettingsHandler(settings *config.Settings, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger,
	}
}

// Get returns the current settings with the API key redacted.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"database_url": h.settings.DatabaseURL(),
		"api_key_set":  h.settings.APIKey() != "",
		"configured":   h.settings.Configured(),
	})
}

// Put replaces both credentials and persists them. Data operations become
// available, or unavailable, immediately.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode settings request",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.settings.Update(req.DatabaseURL, req.APIKey); err != nil {
		h.logger.Error("Failed to persist settings",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to persist settings", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Settings updated",
		slog.Bool("configured", h.settings.Configured()))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"configured": h.settings.Configured(),
	})
}
