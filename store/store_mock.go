package store

import (
	"context"

	"github.com/serisow/knowbase/knowledge"
)

// MockDocumentStore is a function-field test double for DocumentStore.
type MockDocumentStore struct {
	InsertFunc       func(ctx context.Context, doc knowledge.Document, meta knowledge.DocumentMetadata) error
	FetchContextFunc func(ctx context.Context, limit int) ([]string, error)
}

func (m *MockDocumentStore) Insert(ctx context.Context, doc knowledge.Document, meta knowledge.DocumentMetadata) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, doc, meta)
	}
	return nil
}

func (m *MockDocumentStore) FetchContext(ctx context.Context, limit int) ([]string, error) {
	if m.FetchContextFunc != nil {
		return m.FetchContextFunc(ctx, limit)
	}
	return nil, nil
}
