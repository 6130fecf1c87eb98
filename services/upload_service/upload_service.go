package upload_service

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/serisow/knowbase/config"
    "github.com/serisow/knowbase/knowledge"
    "github.com/serisow/knowbase/services/extract_service"
    "github.com/serisow/knowbase/services/llm_service"
    "github.com/serisow/knowbase/store"
)

// ErrNotConfigured is returned when credentials are absent. The guard runs
// before anything else: no registry entry is created and no network call is
// attempted.
var ErrNotConfigured = errors.New("service is not configured")

const contentPreviewLength = 250

const cleanupPromptTemplate = `You are preparing a document for storage in a knowledge base.
Clean up the following text extracted from the file %q: fix broken line
breaks and hyphenation, drop headers, footers and page numbers, and keep the
substance intact. Return only the cleaned text, nothing else.

%s`

// Processor drives one uploaded file through extraction, the language-model
// cleanup pass and the document store, tracking the document's lifecycle in
// the shared application state.
type Processor struct {
    state     *knowledge.AppState
    settings  *config.Settings
    extractor *extract_service.DocumentExtractor
    llm       llm_service.LLMService
    llmConfig func() map[string]interface{}
    store     store.DocumentStore
    logger    *slog.Logger
}

func NewProcessor(
    state *knowledge.AppState,
    settings *config.Settings,
    extractor *extract_service.DocumentExtractor,
    llm llm_service.LLMService,
    llmConfig func() map[string]interface{},
    docStore store.DocumentStore,
    logger *slog.Logger,
) *Processor {
    return &Processor{
        state:     state,
        settings:  settings,
        extractor: extractor,
        llm:       llm,
        llmConfig: llmConfig,
        store:     docStore,
        logger:    logger,
    }
}

// Process runs the upload state machine for one file: the document enters
// the registry with status processing before any byte is read, and settles
// on exactly one of ready or error. Registry updates are keyed by the
// document id, so uploads racing each other never clobber one another's
// entries.
func (p *Processor) Process(ctx context.Context, filename, mimeType string, r io.Reader) (knowledge.Document, error) {
    if !p.settings.Configured() {
        return knowledge.Document{}, ErrNotConfigured
    }

    doc := knowledge.Document{
        ID:        uuid.NewString(),
        Name:      filename,
        Status:    knowledge.StatusProcessing,
        Timestamp: time.Now(),
    }
    p.state.AddDocument(doc)

    p.logger.Info("Started processing upload",
        slog.String("document_id", doc.ID),
        slog.String("filename", filename),
        slog.String("content_type", mimeType))

    data, err := io.ReadAll(r)
    if err != nil {
        return p.fail(doc, fmt.Errorf("failed to read file: %w", err))
    }

    text, err := p.extractor.Extract(data, filename, mimeType)
    if err != nil {
        return p.fail(doc, err)
    }

    cleaned, err := p.llm.CallLLM(ctx, p.llmConfig(), fmt.Sprintf(cleanupPromptTemplate, filename, text))
    if err != nil {
        return p.fail(doc, fmt.Errorf("cleanup pass failed: %w", err))
    }

    doc.Content = cleaned
    meta := knowledge.DocumentMetadata{
        WordCount:      len(strings.Fields(cleaned)),
        ContentType:    mimeType,
        ContentPreview: preview(cleaned),
    }
    if err := p.store.Insert(ctx, doc, meta); err != nil {
        return p.fail(doc, err)
    }

    doc.Status = knowledge.StatusReady
    p.state.PatchDocument(doc.ID, doc.Content, knowledge.StatusReady)

    p.logger.Info("Document ready",
        slog.String("document_id", doc.ID),
        slog.String("filename", filename),
        slog.Int("content_length", len(cleaned)))

    return doc, nil
}

// fail settles the document on the error status, leaving its content empty,
// and records the classified message as the process-wide transient error.
func (p *Processor) fail(doc knowledge.Document, err error) (knowledge.Document, error) {
    p.state.PatchDocument(doc.ID, "", knowledge.StatusError)

    msg := err.Error()
    if store.IsMissingTable(err) {
        msg = store.SchemaMissingMessage
    }
    p.state.SetError(msg)

    p.logger.Error("Upload failed",
        slog.String("document_id", doc.ID),
        slog.String("filename", doc.Name),
        slog.String("error", err.Error()))

    doc.Content = ""
    doc.Status = knowledge.StatusError
    return doc, err
}

func preview(text string) string {
    if len(text) > contentPreviewLength {
        return text[:contentPreviewLength] + "..."
    }
    return text
}
