package db

import (
	"database/sql"
	"time"
)

// Timestamps are stored as unix milliseconds in both dialects.

// ToMillis encodes t for storage.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis decodes a stored timestamp as UTC.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FromNullMillis decodes a nullable stored timestamp.
func FromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}

	t := FromMillis(ms.Int64)

	return &t
}
