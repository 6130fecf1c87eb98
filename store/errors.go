package store

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// undefinedTableCode is the Postgres error code for "relation does not
// exist" (42P01).
const undefinedTableCode = "42P01"

// SchemaMissingMessage is the operator-facing message shown when a store
// operation fails because the documents relation has not been created yet.
const SchemaMissingMessage = "The documents table does not exist yet. Run the schema setup SQL against your database, then retry."

// IsMissingTable reports whether err indicates the documents relation is
// absent. It prefers the structured Postgres error code and falls back to
// matching the relation name in the message when no code is available.
// The substring fallback is fragile but deliberate: some hosted backends
// wrap the driver error and drop the code.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedTableCode
	}

	msg := err.Error()
	if strings.Contains(msg, undefinedTableCode) {
		return true
	}
	return strings.Contains(msg, "documents") && strings.Contains(msg, "does not exist")
}
