// Package store provides key/value persistence for the address book.
// Values are JSON documents; a Gateway hides whether they live in the local
// encrypted vault or in Redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a key has never been written.
var ErrNotFound = errors.New("item not found")

// Gateway reads and writes JSON documents by key.
type Gateway interface {
	// GetItem returns the stored document, or ErrNotFound.
	GetItem(ctx context.Context, key string) (json.RawMessage, error)
	// SetItem marshals value and stores it under key. A nil error means
	// subsequent reads observe the new value.
	SetItem(ctx context.Context, key string, value any) error
	Close() error
}

// marshal encodes a value for storage, passing pre-encoded JSON through.
func marshal(value any) ([]byte, error) {
	switch v := value.(type) {
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, errors.New("invalid json")
		}
		return v, nil
	}
	return json.Marshal(value)
}
