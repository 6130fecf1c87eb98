package handlers

import (
	"net/http"

	"github.com/serisow/knowbase/store"
)

// SchemaHandler serves the bootstrap SQL as copyable text. The service never
// runs this statement itself; the operator applies it to the hosted database.
type SchemaHandler struct{}

func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{}
}

func (h *SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(store.SchemaSQL))
}
