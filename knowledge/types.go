package knowledge

import "time"

type DocumentStatus string

const (
    StatusProcessing DocumentStatus = "processing"
    StatusReady      DocumentStatus = "ready"
    StatusError      DocumentStatus = "error"
)

// Document is one uploaded knowledge unit tracked through its lifecycle.
// Content stays empty until processing completes.
type Document struct {
    ID        string         `json:"id"`
    Name      string         `json:"name"`
    Content   string         `json:"content"`
    Status    DocumentStatus `json:"status"`
    Timestamp time.Time      `json:"timestamp"`
}

type DocumentMetadata struct {
    WordCount      int    `json:"word_count"`
    ContentType    string `json:"content_type"`
    ContentPreview string `json:"content_preview"`
}

type ChatRole string

const (
    RoleUser      ChatRole = "user"
    RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry in the append-only conversation log. Sources is
// part of the contract for future retrieval backends; the current unranked
// scan produces no citations, so it is always empty.
type ChatMessage struct {
    ID      string   `json:"id"`
    Role    ChatRole `json:"role"`
    Content string   `json:"content"`
    Sources []string `json:"sources,omitempty"`
}
