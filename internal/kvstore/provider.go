// Package kvstore provides the key-value persistence behind the notes
// service: named JSON blobs grouped under a caller's auth key.
package kvstore

import (
	"context"
	"encoding/json"
	"time"
)

// Item is one stored value.
type Item struct {
	AuthKey   string          `json:"auth_key"`
	DataKey   string          `json:"data_key"`
	Value     json.RawMessage `json:"data_value"`
	Checksum  string          `json:"checksum"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Provider defines the key-value operations the service depends on.
// Consumers should depend on this interface rather than a concrete backend.
type Provider interface {
	// Get returns the item or apperr.ErrNotFound.
	Get(ctx context.Context, authKey, dataKey string) (Item, error)
	// Set creates or overwrites the value.
	Set(ctx context.Context, authKey, dataKey string, value []byte) error
	// List returns every item stored under authKey ordered by data key.
	List(ctx context.Context, authKey string) ([]Item, error)
	// Delete removes one item or returns apperr.ErrNotFound.
	Delete(ctx context.Context, authKey, dataKey string) error
	// DeleteAll removes every item under authKey and returns how many.
	DeleteAll(ctx context.Context, authKey string) (int, error)
	Close() error
}

// Verify backends satisfy Provider at compile time.
var (
	_ Provider = (*SQLite)(nil)
	_ Provider = (*Redis)(nil)
	_ Provider = (*Cached)(nil)
)
