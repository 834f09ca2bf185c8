package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/recipevault/internal/errors"
)

// GetDocument returns the value stored under key.
// ok is false when no document has been stored yet.
func GetDocument(ctx context.Context, db *sql.DB, key string) (value string, ok bool, err error) {
	row := db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, errors.NewInternal(err)
	}
	return value, true, nil
}

// PutDocument overwrites the document stored under key.
func PutDocument(ctx context.Context, db *sql.DB, key, value string) error {
	query := `
		INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, key, value, time.Now().Unix()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// DeleteDocument removes the document stored under key. Missing keys are not an error.
func DeleteDocument(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
