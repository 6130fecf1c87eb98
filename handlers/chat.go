package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/serisow/knowbase/knowledge"
	"github.com/serisow/knowbase/services/chat_service"
)

type ChatRequest struct {
	Question string `json:"question"`
}

type ChatResponse struct {
	Answer knowledge.ChatMessage `json:"answer"`
}

type ChatHandler struct {
	chat   *chat_service.ChatService
	state  *knowledge.AppState
	logger *slog.Logger
}

func NewChatHandler(chat *chat_service.ChatService, state *knowledge.AppState, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		state:  state,
		logger: logger,
	}
}

// Ask submits one question and responds with the single assistant message
// the exchange produced.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode chat request",
			slog.String("error", err.Error()))
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	answer, err := h.chat.Ask(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, chat_service.ErrEmptyQuestion):
			writeJSONError(w, "Question cannot be empty", http.StatusBadRequest)
		case errors.Is(err, chat_service.ErrNotConfigured):
			writeJSONError(w, "Service is not configured", http.StatusPreconditionFailed)
		case errors.Is(err, chat_service.ErrAnswerInFlight):
			writeJSONError(w, "An answer is already being generated", http.StatusConflict)
		default:
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{Answer: answer})
}

// History returns the conversation log in append order.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": h.state.Messages(),
	})
}
