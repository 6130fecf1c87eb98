package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/serisow/knowbase/db"
	"github.com/serisow/knowbase/knowledge"
)

// EmbeddingDim matches the vector column in the documents relation.
const EmbeddingDim = 1536

// DocumentStore is the hosted relational store collaborator. FetchContext is
// a bounded, unranked scan; no ordering is guaranteed or assumed.
type DocumentStore interface {
	Insert(ctx context.Context, doc knowledge.Document, meta knowledge.DocumentMetadata) error
	FetchContext(ctx context.Context, limit int) ([]string, error)
}

// PgDocumentStore persists documents in Postgres. The pool is dialed lazily
// from the current settings URL and re-dialed when the URL changes, so
// credentials entered at runtime take effect without a restart.
type PgDocumentStore struct {
	mu          sync.Mutex
	pool        *pgxpool.Pool
	poolURL     string
	databaseURL func() string
	logger      *slog.Logger
}

func NewPgDocumentStore(databaseURL func() string, logger *slog.Logger) *PgDocumentStore {
	return &PgDocumentStore{
		databaseURL: databaseURL,
		logger:      logger,
	}
}

func (s *PgDocumentStore) getPool(ctx context.Context) (*pgxpool.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	url := s.databaseURL()
	if s.pool != nil && s.poolURL == url {
		return s.pool, nil
	}
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}

	pool, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.poolURL = url
	return pool, nil
}

// Insert persists one document row. The embedding column is written as an
// all-zero vector: it is a placeholder for a future similarity backend and
// is never used for ranking.
func (s *PgDocumentStore) Insert(ctx context.Context, doc knowledge.Document, meta knowledge.DocumentMetadata) error {
	pool, err := s.getPool(ctx)
	if err != nil {
		return err
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal document metadata: %w", err)
	}

	embedding := pgvector.NewVector(make([]float32, EmbeddingDim))

	query := `INSERT INTO documents (id, name, content, metadata, embedding) VALUES ($1, $2, $3, $4, $5)`
	if _, err := pool.Exec(ctx, query, doc.ID, doc.Name, doc.Content, metaJSON, embedding); err != nil {
		s.logger.Error("Failed to store document",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to store document: %w", err)
	}

	s.logger.Info("Stored document",
		slog.String("document_id", doc.ID),
		slog.String("name", doc.Name),
		slog.Int("content_length", len(doc.Content)))
	return nil
}

// FetchContext returns up to limit stored content values in whatever order
// the store produces them. No similarity ranking is performed.
func (s *PgDocumentStore) FetchContext(ctx context.Context, limit int) ([]string, error) {
	pool, err := s.getPool(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, `SELECT content FROM documents LIMIT $1`, limit)
	if err != nil {
		s.logger.Error("Failed to fetch context",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to fetch knowledge: %w", err)
	}
	defer rows.Close()

	contents := make([]string, 0, limit)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("failed to scan content row: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read content rows: %w", err)
	}

	return contents, nil
}
