package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Timestamps are stored as unix milliseconds, lists as JSON arrays.

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(data string) []string {
	var values []string
	if data == "" {
		return values
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}
