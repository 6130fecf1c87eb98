package knowledge

import (
    "sync"
    "testing"
    "time"
)

func TestAddDocumentPrependsMostRecentFirst(t *testing.T) {
    state := NewAppState()

    state.AddDocument(Document{ID: "a", Name: "first.txt", Status: StatusProcessing, Timestamp: time.Now()})
    state.AddDocument(Document{ID: "b", Name: "second.txt", Status: StatusProcessing, Timestamp: time.Now()})

    docs := state.Documents()
    if len(docs) != 2 {
        t.Fatalf("Expected 2 documents, got %d", len(docs))
    }
    if docs[0].ID != "b" || docs[1].ID != "a" {
        t.Errorf("Expected most-recent-first order [b a], got [%s %s]", docs[0].ID, docs[1].ID)
    }
}

func TestPatchDocumentByID(t *testing.T) {
    state := NewAppState()
    state.AddDocument(Document{ID: "a", Name: "a.txt", Status: StatusProcessing})
    state.AddDocument(Document{ID: "b", Name: "b.txt", Status: StatusProcessing})

    state.PatchDocument("a", "cleaned text", StatusReady)

    docs := state.Documents()
    for _, doc := range docs {
        switch doc.ID {
        case "a":
            if doc.Status != StatusReady || doc.Content != "cleaned text" {
                t.Errorf("Expected document a patched to ready, got status=%s content=%q", doc.Status, doc.Content)
            }
        case "b":
            if doc.Status != StatusProcessing || doc.Content != "" {
                t.Errorf("Expected document b untouched, got status=%s content=%q", doc.Status, doc.Content)
            }
        }
    }
}

func TestPatchDocumentUnknownIDIsNoop(t *testing.T) {
    state := NewAppState()
    state.AddDocument(Document{ID: "a", Name: "a.txt", Status: StatusProcessing})

    state.PatchDocument("missing", "x", StatusError)

    docs := state.Documents()
    if docs[0].Status != StatusProcessing || docs[0].Content != "" {
        t.Errorf("Expected document a untouched, got status=%s content=%q", docs[0].Status, docs[0].Content)
    }
}

func TestSnapshotsAreIsolated(t *testing.T) {
    state := NewAppState()
    state.AddDocument(Document{ID: "a", Name: "a.txt", Status: StatusProcessing})

    docs := state.Documents()
    docs[0].Status = StatusError
    docs[0].Content = "mutated"

    fresh := state.Documents()
    if fresh[0].Status != StatusProcessing || fresh[0].Content != "" {
        t.Error("Mutating a snapshot leaked into the registry")
    }

    state.AppendMessage(ChatMessage{ID: "m1", Role: RoleUser, Content: "hi"})
    msgs := state.Messages()
    msgs[0].Content = "mutated"
    if state.Messages()[0].Content != "hi" {
        t.Error("Mutating a message snapshot leaked into the conversation log")
    }
}

func TestAppendMessageKeepsOrder(t *testing.T) {
    state := NewAppState()
    state.AppendMessage(ChatMessage{ID: "1", Role: RoleUser, Content: "question"})
    state.AppendMessage(ChatMessage{ID: "2", Role: RoleAssistant, Content: "answer"})

    msgs := state.Messages()
    if len(msgs) != 2 {
        t.Fatalf("Expected 2 messages, got %d", len(msgs))
    }
    if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
        t.Errorf("Expected [user assistant], got [%s %s]", msgs[0].Role, msgs[1].Role)
    }
}

func TestTransientErrorOverwriteAndDismiss(t *testing.T) {
    state := NewAppState()

    state.SetError("first failure")
    state.SetError("second failure")
    if got := state.LastError(); got != "second failure" {
        t.Errorf("Expected latest error to win, got %q", got)
    }

    state.DismissError()
    if got := state.LastError(); got != "" {
        t.Errorf("Expected dismissed error to be empty, got %q", got)
    }
}

func TestBeginAnswerSingleFlight(t *testing.T) {
    state := NewAppState()

    if !state.BeginAnswer() {
        t.Fatal("Expected first BeginAnswer to succeed")
    }
    if state.BeginAnswer() {
        t.Error("Expected second BeginAnswer to fail while answering")
    }
    if !state.Answering() {
        t.Error("Expected answering flag to be set")
    }

    state.EndAnswer()
    if state.Answering() {
        t.Error("Expected answering flag to be cleared")
    }
    if !state.BeginAnswer() {
        t.Error("Expected BeginAnswer to succeed after release")
    }
}

func TestListenerFiresOnEveryMutation(t *testing.T) {
    state := NewAppState()

    var mu sync.Mutex
    count := 0
    state.Subscribe(func() {
        mu.Lock()
        count++
        mu.Unlock()
    })

    state.AddDocument(Document{ID: "a"})
    state.PatchDocument("a", "", StatusReady)
    state.AppendMessage(ChatMessage{ID: "m"})
    state.SetError("boom")
    state.DismissError()

    mu.Lock()
    defer mu.Unlock()
    if count != 5 {
        t.Errorf("Expected 5 notifications, got %d", count)
    }
}

func TestConcurrentPatchesKeyedByID(t *testing.T) {
    state := NewAppState()
    for _, id := range []string{"a", "b", "c", "d"} {
        state.AddDocument(Document{ID: id, Status: StatusProcessing})
    }

    var wg sync.WaitGroup
    for _, id := range []string{"a", "b", "c", "d"} {
        wg.Add(1)
        go func(id string) {
            defer wg.Done()
            state.PatchDocument(id, "content-"+id, StatusReady)
        }(id)
    }
    wg.Wait()

    for _, doc := range state.Documents() {
        if doc.Status != StatusReady {
            t.Errorf("Document %s not patched, status=%s", doc.ID, doc.Status)
        }
        if doc.Content != "content-"+doc.ID {
            t.Errorf("Document %s has wrong content %q", doc.ID, doc.Content)
        }
    }
}
