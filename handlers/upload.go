package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/serisow/knowbase/services/extract_service"
	"github.com/serisow/knowbase/services/upload_service"
)

// Accepted upload extensions. The 10 MB figure below is a documented soft
// limit on the multipart parse; nothing else in the flow enforces a size.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".md":   true,
}

type UploadHandler struct {
	processor *upload_service.Processor
	logger    *slog.Logger
}

func NewUploadHandler(processor *upload_service.Processor, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		processor: processor,
		logger:    logger,
	}
}

func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Received file upload request")

	err := r.ParseMultipartForm(10 << 20) // 10 MB limit
	if err != nil {
		writeJSONError(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, "Failed to get file from form", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		h.logger.Error("Unsupported file type",
			slog.String("filename", header.Filename),
			slog.String("extension", ext))
		writeJSONError(w, "Unsupported file type", http.StatusBadRequest)
		return
	}

	doc, err := h.processor.Process(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		if errors.Is(err, upload_service.ErrNotConfigured) {
			writeJSONError(w, "Service is not configured", http.StatusPreconditionFailed)
			return
		}
		status := http.StatusInternalServerError
		if errors.Is(err, extract_service.ErrEmptyContent) {
			status = http.StatusUnprocessableEntity
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":    err.Error(),
			"document": doc,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"message":  "File uploaded and processed successfully",
		"document": doc,
	}); err != nil {
		h.logger.Error("Failed to write response",
			slog.String("error", err.Error()))
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
