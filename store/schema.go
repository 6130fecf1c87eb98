package store

// SchemaSQL is the bootstrap statement for the documents relation. It is
// exposed to the operator as copyable reference text and never executed by
// the service itself.
const SchemaSQL = `CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
    id uuid PRIMARY KEY,
    name text NOT NULL,
    content text NOT NULL DEFAULT '',
    metadata jsonb NOT NULL DEFAULT '{}'::jsonb,
    embedding vector(1536)
);`
