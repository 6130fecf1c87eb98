package chat_service

import (
    "context"
    "errors"
    "io"
    "log/slog"
    "path/filepath"
    "strings"
    "testing"

    "github.com/serisow/knowbase/config"
    "github.com/serisow/knowbase/knowledge"
    "github.com/serisow/knowbase/services/llm_service"
    "github.com/serisow/knowbase/store"
)

func testLogger() *slog.Logger {
    return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(t *testing.T, configured bool) *config.Settings {
    t.Helper()
    s, err := config.LoadSettings(filepath.Join(t.TempDir(), "settings.json"))
    if err != nil {
        t.Fatalf("LoadSettings returned error: %v", err)
    }
    if configured {
        if err := s.Update("postgres://db.example.com/kb", "sk-test"); err != nil {
            t.Fatalf("Update returned error: %v", err)
        }
    }
    return s
}

func testLLMConfig() func() map[string]interface{} {
    return func() map[string]interface{} {
        return map[string]interface{}{
            "api_url":    "https://llm.example.com",
            "api_key":    "sk-test",
            "model_name": "test-model",
        }
    }
}

func newChatService(t *testing.T, state *knowledge.AppState, settings *config.Settings, docStore store.DocumentStore, llm llm_service.LLMService) *ChatService {
    t.Helper()
    return New(state, settings, docStore, llm, testLLMConfig(), 10, testLogger())
}

func TestAskSuccess(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, true)

    var gotLimit int
    docStore := &store.MockDocumentStore{
        FetchContextFunc: func(ctx context.Context, limit int) ([]string, error) {
            gotLimit = limit
            return []string{"block one", "block two"}, nil
        },
    }

    llm := &llm_service.MockLLMService{
        CallLLMFunc: func(ctx context.Context, cfg map[string]interface{}, prompt string) (string, error) {
            if !strings.Contains(prompt, "block one\n\nblock two") {
                t.Errorf("Expected context blocks joined by a blank line, got %q", prompt)
            }
            if !strings.Contains(prompt, "what is stored?") {
                t.Errorf("Expected question in prompt")
            }
            return "the stored answer", nil
        },
    }

    svc := newChatService(t, state, settings, docStore, llm)

    answer, err := svc.Ask(context.Background(), "what is stored?")
    if err != nil {
        t.Fatalf("Ask returned error: %v", err)
    }
    if gotLimit != 10 {
        t.Errorf("Expected context fetch bounded at 10, got %d", gotLimit)
    }
    if answer.Role != knowledge.RoleAssistant || answer.Content != "the stored answer" {
        t.Errorf("Unexpected answer: %+v", answer)
    }
    if len(answer.Sources) != 0 {
        t.Errorf("Expected empty sources under unranked retrieval, got %v", answer.Sources)
    }

    msgs := state.Messages()
    if len(msgs) != 2 {
        t.Fatalf("Expected exactly 2 messages, got %d", len(msgs))
    }
    if msgs[0].Role != knowledge.RoleUser || msgs[0].Content != "what is stored?" {
        t.Errorf("Unexpected user message: %+v", msgs[0])
    }
    if msgs[1].Role != knowledge.RoleAssistant {
        t.Errorf("Unexpected assistant message: %+v", msgs[1])
    }
    if msgs[0].ID == msgs[1].ID {
        t.Error("Paired user/assistant messages must have distinct ids")
    }
    if state.Answering() {
        t.Error("Expected answering flag cleared after exchange")
    }
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, true)
    svc := newChatService(t, state, settings, &store.MockDocumentStore{}, &llm_service.MockLLMService{})

    for _, question := range []string{"", "   ", "\n\t"} {
        if _, err := svc.Ask(context.Background(), question); !errors.Is(err, ErrEmptyQuestion) {
            t.Errorf("Expected ErrEmptyQuestion for %q, got %v", question, err)
        }
    }
    if len(state.Messages()) != 0 {
        t.Error("Expected conversation log unchanged for empty questions")
    }
}

func TestAskRejectsUnconfigured(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, false)

    storeCalls, llmCalls := 0, 0
    docStore := &store.MockDocumentStore{
        FetchContextFunc: func(ctx context.Context, limit int) ([]string, error) {
            storeCalls++
            return nil, nil
        },
    }
    llm := &llm_service.MockLLMService{
        CallLLMFunc: func(ctx context.Context, cfg map[string]interface{}, prompt string) (string, error) {
            llmCalls++
            return "", nil
        },
    }

    svc := newChatService(t, state, settings, docStore, llm)

    if _, err := svc.Ask(context.Background(), "anyone home?"); !errors.Is(err, ErrNotConfigured) {
        t.Fatalf("Expected ErrNotConfigured, got %v", err)
    }
    if len(state.Messages()) != 0 {
        t.Error("Expected conversation log unchanged when unconfigured")
    }
    if storeCalls != 0 || llmCalls != 0 {
        t.Errorf("Expected zero collaborator calls, got store=%d llm=%d", storeCalls, llmCalls)
    }
}

func TestAskSingleFlight(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, true)

    entered := make(chan struct{})
    release := make(chan struct{})

    llm := &llm_service.MockLLMService{
        CallLLMFunc: func(ctx context.Context, cfg map[string]interface{}, prompt string) (string, error) {
            close(entered)
            <-release
            return "slow answer", nil
        },
    }

    svc := newChatService(t, state, settings, &store.MockDocumentStore{}, llm)

    done := make(chan struct{})
    go func() {
        defer close(done)
        if _, err := svc.Ask(context.Background(), "first question"); err != nil {
            t.Errorf("First Ask returned error: %v", err)
        }
    }()

    <-entered
    logLenBefore := len(state.Messages())

    if _, err := svc.Ask(context.Background(), "second question"); !errors.Is(err, ErrAnswerInFlight) {
        t.Errorf("Expected ErrAnswerInFlight, got %v", err)
    }
    if got := len(state.Messages()); got != logLenBefore {
        t.Errorf("Expected conversation log unchanged by rejected question, got %d -> %d", logLenBefore, got)
    }

    close(release)
    <-done

    msgs := state.Messages()
    if len(msgs) != 2 {
        t.Fatalf("Expected exactly 2 messages after first exchange, got %d", len(msgs))
    }
    if state.Answering() {
        t.Error("Expected answering flag cleared")
    }
}

func TestAskStoreFailureSynthesizesAssistantError(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, true)

    docStore := &store.MockDocumentStore{
        FetchContextFunc: func(ctx context.Context, limit int) ([]string, error) {
            return nil, errors.New(`relation "documents" does not exist`)
        },
    }
    llmCalls := 0
    llm := &llm_service.MockLLMService{
        CallLLMFunc: func(ctx context.Context, cfg map[string]interface{}, prompt string) (string, error) {
            llmCalls++
            return "", nil
        },
    }

    svc := newChatService(t, state, settings, docStore, llm)

    answer, err := svc.Ask(context.Background(), "what now?")
    if err != nil {
        t.Fatalf("Ask must not fail the exchange on retrieval errors, got %v", err)
    }
    if !strings.HasPrefix(answer.Content, "Error: ") {
        t.Errorf("Expected synthesized error message, got %q", answer.Content)
    }
    if !strings.Contains(answer.Content, "does not exist") {
        t.Errorf("Expected failure detail preserved, got %q", answer.Content)
    }
    if llmCalls != 0 {
        t.Errorf("Expected no generator call after fetch failure, got %d", llmCalls)
    }

    msgs := state.Messages()
    if len(msgs) != 2 {
        t.Fatalf("Expected exactly 2 messages, got %d", len(msgs))
    }
    if msgs[1].Role != knowledge.RoleAssistant {
        t.Error("Expected synthesized message appended as assistant")
    }
    if state.Answering() {
        t.Error("Expected answering flag cleared after failure")
    }
}

func TestAskGeneratorFailureSynthesizesAssistantError(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, true)

    llm := &llm_service.MockLLMService{
        CallLLMFunc: func(ctx context.Context, cfg map[string]interface{}, prompt string) (string, error) {
            return "", errors.New("model unavailable")
        },
    }

    svc := newChatService(t, state, settings, &store.MockDocumentStore{}, llm)

    answer, err := svc.Ask(context.Background(), "still there?")
    if err != nil {
        t.Fatalf("Ask must not fail the exchange on generation errors, got %v", err)
    }
    if answer.Content != "Error: model unavailable" {
        t.Errorf("Expected prefixed failure detail, got %q", answer.Content)
    }
    if len(state.Messages()) != 2 {
        t.Fatalf("Expected exactly 2 messages, got %d", len(state.Messages()))
    }
    if state.Answering() {
        t.Error("Expected answering flag cleared after failure")
    }
}

func TestAskEmptyContextStillAnswers(t *testing.T) {
    state := knowledge.NewAppState()
    settings := testSettings(t, true)

    docStore := &store.MockDocumentStore{
        FetchContextFunc: func(ctx context.Context, limit int) ([]string, error) {
            return []string{}, nil
        },
    }
    llm := &llm_service.MockLLMService{
        CallLLMFunc: func(ctx context.Context, cfg map[string]interface{}, prompt string) (string, error) {
            return "nothing stored yet", nil
        },
    }

    svc := newChatService(t, state, settings, docStore, llm)

    answer, err := svc.Ask(context.Background(), "what do you know?")
    if err != nil {
        t.Fatalf("Ask returned error: %v", err)
    }
    if answer.Content != "nothing stored yet" {
        t.Errorf("Unexpected answer: %q", answer.Content)
    }
}
