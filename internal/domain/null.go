package domain

import (
	"database/sql"
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// Conversion helpers between database/sql null types, pqtype raw JSON, and
// plain Go values. Keeps the sql.Null* plumbing out of business logic.

// ToNullString converts a string to sql.NullString (empty = NULL).
func ToNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullStringValue returns the string value or "" for NULL.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullRawMessage converts raw JSON to pqtype.NullRawMessage (nil = NULL).
func ToNullRawMessage(m json.RawMessage) pqtype.NullRawMessage {
	return pqtype.NullRawMessage{RawMessage: m, Valid: len(m) > 0}
}

// NullRawMessageValue returns the raw JSON value or nil for NULL.
func NullRawMessageValue(nm pqtype.NullRawMessage) json.RawMessage {
	if nm.Valid {
		return nm.RawMessage
	}
	return nil
}
