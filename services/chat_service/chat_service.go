package chat_service

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "strings"

    "github.com/google/uuid"

    "github.com/serisow/knowbase/config"
    "github.com/serisow/knowbase/knowledge"
    "github.com/serisow/knowbase/services/llm_service"
    "github.com/serisow/knowbase/store"
)

var (
    // ErrEmptyQuestion rejects a blank submission; the conversation log is
    // left untouched.
    ErrEmptyQuestion = errors.New("question is empty")
    // ErrNotConfigured rejects submissions while credentials are absent.
    ErrNotConfigured = errors.New("service is not configured")
    // ErrAnswerInFlight enforces the single-flight gate: only one question
    // may be outstanding at a time.
    ErrAnswerInFlight = errors.New("an answer is already being generated")
)

const genericRetrievalFailure = "Could not retrieve knowledge. Make sure the documents table exists."

const answerPromptTemplate = `Answer the question using the knowledge base content below.
If the content does not cover the question, say so.

Knowledge base content:
%s

Question: %s`

// ChatService drives one question through the context fetch and the answer
// generator, appending to the append-only conversation log.
type ChatService struct {
    state        *knowledge.AppState
    settings     *config.Settings
    store        store.DocumentStore
    llm          llm_service.LLMService
    llmConfig    func() map[string]interface{}
    contextLimit int
    logger       *slog.Logger
}

func New(
    state *knowledge.AppState,
    settings *config.Settings,
    docStore store.DocumentStore,
    llm llm_service.LLMService,
    llmConfig func() map[string]interface{},
    contextLimit int,
    logger *slog.Logger,
) *ChatService {
    return &ChatService{
        state:        state,
        settings:     settings,
        store:        docStore,
        llm:          llm,
        llmConfig:    llmConfig,
        contextLimit: contextLimit,
        logger:       logger,
    }
}

// Ask submits one question. For every accepted question the conversation log
// gains exactly two entries, the user message and one assistant message, in
// that order; the assistant message carries either the generated answer or a
// synthesized error string. The user message is never retracted.
func (s *ChatService) Ask(ctx context.Context, question string) (knowledge.ChatMessage, error) {
    question = strings.TrimSpace(question)
    if question == "" {
        return knowledge.ChatMessage{}, ErrEmptyQuestion
    }
    if !s.settings.Configured() {
        return knowledge.ChatMessage{}, ErrNotConfigured
    }
    if !s.state.BeginAnswer() {
        s.logger.Warn("Rejected question while another answer is in flight")
        return knowledge.ChatMessage{}, ErrAnswerInFlight
    }
    defer s.state.EndAnswer()

    s.state.AppendMessage(knowledge.ChatMessage{
        ID:      uuid.NewString(),
        Role:    knowledge.RoleUser,
        Content: question,
    })

    answer := knowledge.ChatMessage{
        ID:      uuid.NewString(),
        Role:    knowledge.RoleAssistant,
        Sources: []string{},
    }

    text, err := s.generate(ctx, question)
    if err != nil {
        detail := err.Error()
        if detail == "" {
            detail = genericRetrievalFailure
        }
        answer.Content = "Error: " + detail
        s.logger.Error("Failed to answer question",
            slog.String("error", err.Error()))
    } else {
        answer.Content = text
    }

    s.state.AppendMessage(answer)
    return answer, nil
}

func (s *ChatService) generate(ctx context.Context, question string) (string, error) {
    contents, err := s.store.FetchContext(ctx, s.contextLimit)
    if err != nil {
        return "", err
    }

    // Context blocks are concatenated in store order with a blank-line
    // separator; no similarity ranking exists upstream.
    contextText := strings.Join(contents, "\n\n")

    s.logger.Debug("Fetched knowledge context",
        slog.Int("blocks", len(contents)),
        slog.Int("context_length", len(contextText)))

    prompt := fmt.Sprintf(answerPromptTemplate, contextText, question)
    return s.llm.CallLLM(ctx, s.llmConfig(), prompt)
}
