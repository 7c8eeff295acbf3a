package storage

import (
	"context"

	"github.com/poiesic/grievance/core"
)

// BlobStore is a key/value store of named byte objects. Keys group artifacts
// into folders with "/" separators.
// Implementations must be thread-safe and support concurrent access.
type BlobStore interface {
	// Exists reports whether a blob exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Read returns the content of a blob.
	// Returns ErrNotFound if the blob doesn't exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write creates or replaces a blob.
	Write(ctx context.Context, key string, data []byte, contentType string) error

	// CreateIfAbsent atomically creates a blob only if no blob exists under key.
	// Returns false, nil when the blob already existed.
	CreateIfAbsent(ctx context.Context, key string, data []byte, contentType string) (bool, error)

	// Delete removes a blob.
	// Returns ErrNotFound if the blob doesn't exist.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all blobs whose key begins with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources held by the store.
	Close() error
}

// AnalyticsStore is an append-only row sink with a discoverable column schema.
type AnalyticsStore interface {
	// Columns returns the live column names of a table.
	Columns(ctx context.Context, tableID string) ([]string, error)

	// InsertRow appends a single row. Row-level rejections are returned joined
	// into one error; nil means the row was accepted.
	InsertRow(ctx context.Context, tableID string, row core.Row) error

	// Close releases resources held by the store.
	Close() error
}

// TableManager creates the analytical complaint table.
type TableManager interface {
	// CreateTable creates tableID with the canonical complaint schema.
	// With recreate set, an existing table is dropped first.
	CreateTable(ctx context.Context, tableID string, recreate bool) error
}
