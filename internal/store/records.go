package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Collection keys.
const (
	KeyInventory = "inventory"
	KeyUsers     = "users"
	KeyLogs      = "logs"
	KeyLoans     = "loans"
)

// Record is one key/value pair to persist.
type Record struct {
	Key   string
	Value any
}

// Records persists named collections as JSON documents in the records table.
// Reads never fail: anything unusable is reported as missing.
type Records struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRecords returns a record store backed by db.
func NewRecords(db *sql.DB, log *slog.Logger) *Records {
	if log == nil {
		log = slog.Default()
	}
	return &Records{db: db, log: log}
}

// raw returns the stored payload for key, or false if there is none.
func (r *Records) raw(ctx context.Context, key string) ([]byte, bool) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		r.log.Warn("failed to read record", "key", key, "error", err)
		return nil, false
	}
	return []byte(value), true
}

// decode unmarshals raw into dst, logging payloads that do not decode.
func (r *Records) decode(key string, raw []byte, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log.Warn("discarding unreadable record", "key", key, "error", err)
		return false
	}
	return true
}

// SaveAll stores every record in a single transaction.
func (r *Records) SaveAll(ctx context.Context, records ...Record) error {
	payloads := make([][]byte, len(records))
	for i, rec := range records {
		data, err := json.Marshal(rec.Value)
		if err != nil {
			return fmt.Errorf("encoding record %q: %w", rec.Key, err)
		}
		payloads[i] = data
	}

	err := withTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		for i, rec := range records {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO records (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
				rec.Key, string(payloads[i]),
			)
			if err != nil {
				return fmt.Errorf("saving record %q: %w", rec.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving records: %w", err)
	}
	return nil
}

// LoadList decodes a JSON array stored under key. A missing key yields def;
// a payload that is not an array or fails to decode is logged and also
// yields def.
func LoadList[T any](ctx context.Context, r *Records, key string, def []T) []T {
	raw, ok := r.raw(ctx, key)
	if !ok {
		return def
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		r.log.Warn("discarding unreadable record", "key", key, "error", "not a JSON array")
		return def
	}
	var out []T
	if !r.decode(key, raw, &out) {
		return def
	}
	if out == nil {
		out = []T{}
	}
	return out
}
