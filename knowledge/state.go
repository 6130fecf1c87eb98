package knowledge

import "sync"

// AppState owns the document registry, the conversation log, the transient
// upload error and the chat single-flight flag. Orchestrators are the only
// writers; anything presenting the state subscribes to change notifications
// instead of being reached into directly.
//
// Every mutation replaces the affected collection with a fresh copy, and
// every snapshot handed out is a copy, so no caller ever holds a reference
// into a slice another goroutine may be rebuilding.
type AppState struct {
    mu        sync.RWMutex
    documents []Document
    messages  []ChatMessage
    lastError string
    answering bool
    listeners []func()
}

func NewAppState() *AppState {
    return &AppState{}
}

// Subscribe registers a callback fired after every state mutation. The
// callback runs on the mutating goroutine and must not call back into
// AppState mutators.
func (s *AppState) Subscribe(fn func()) {
    s.mu.Lock()
    s.listeners = append(s.listeners, fn)
    s.mu.Unlock()
}

// AddDocument prepends doc to the registry, most-recent-first.
func (s *AppState) AddDocument(doc Document) {
    s.mu.Lock()
    next := make([]Document, 0, len(s.documents)+1)
    next = append(next, doc)
    next = append(next, s.documents...)
    s.documents = next
    listeners := s.listeners
    s.mu.Unlock()
    for _, fn := range listeners {
        fn()
    }
}

// PatchDocument replaces the content and status of the document with the
// given id. Updates are keyed by id so concurrent upload completions never
// clobber each other's entries. Patching an unknown id is a no-op.
func (s *AppState) PatchDocument(id string, content string, status DocumentStatus) {
    s.mu.Lock()
    next := make([]Document, len(s.documents))
    copy(next, s.documents)
    found := false
    for i := range next {
        if next[i].ID == id {
            next[i].Content = content
            next[i].Status = status
            found = true
            break
        }
    }
    s.documents = next
    listeners := s.listeners
    s.mu.Unlock()
    if found {
        for _, fn := range listeners {
            fn()
        }
    }
}

// Documents returns a snapshot copy of the registry, most-recent-first.
func (s *AppState) Documents() []Document {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]Document, len(s.documents))
    copy(out, s.documents)
    return out
}

// AppendMessage appends msg to the conversation log. The log is append-only;
// there is no edit or delete.
func (s *AppState) AppendMessage(msg ChatMessage) {
    s.mu.Lock()
    next := make([]ChatMessage, 0, len(s.messages)+1)
    next = append(next, s.messages...)
    next = append(next, msg)
    s.messages = next
    listeners := s.listeners
    s.mu.Unlock()
    for _, fn := range listeners {
        fn()
    }
}

// Messages returns a snapshot copy of the conversation log in append order.
func (s *AppState) Messages() []ChatMessage {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]ChatMessage, len(s.messages))
    copy(out, s.messages)
    return out
}

// SetError records the most recent upload failure. Each new failure
// overwrites the previous one.
func (s *AppState) SetError(msg string) {
    s.mu.Lock()
    s.lastError = msg
    listeners := s.listeners
    s.mu.Unlock()
    for _, fn := range listeners {
        fn()
    }
}

// DismissError clears the transient upload error.
func (s *AppState) DismissError() {
    s.SetError("")
}

func (s *AppState) LastError() string {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.lastError
}

// BeginAnswer acquires the chat single-flight gate. It returns false when an
// answer is already being generated.
func (s *AppState) BeginAnswer() bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.answering {
        return false
    }
    s.answering = true
    return true
}

// EndAnswer releases the single-flight gate.
func (s *AppState) EndAnswer() {
    s.mu.Lock()
    s.answering = false
    s.mu.Unlock()
}

func (s *AppState) Answering() bool {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.answering
}
