package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/zarlcorp/core/pkg/zcrypto"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
)

const itemsCollection = "items"

// ErrWrongPassword is returned when the vault cannot be unlocked.
var ErrWrongPassword = zstore.ErrWrongPassword

// item wraps a JSON document for the typed zstore collection.
type item struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// Vault is a Gateway over an encrypted zstore.
type Vault struct {
	store *zstore.Store
	items *zstore.Collection[item]
}

// OpenVault unlocks (or initialises) the vault on fsys. The password slice
// is erased once the key has been derived.
func OpenVault(fsys zfilesystem.ReadWriteFileFS, password []byte) (*Vault, error) {
	defer zcrypto.Erase(password)

	s, err := zstore.Open(fsys, password)
	if err != nil {
		if errors.Is(err, zstore.ErrWrongPassword) {
			return nil, ErrWrongPassword
		}
		return nil, fmt.Errorf("open vault: %w", err)
	}

	col, err := zstore.NewCollection[item](s, itemsCollection)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open vault: items collection: %w", err)
	}

	return &Vault{store: s, items: col}, nil
}

// OpenVaultDir opens a vault rooted at dir, creating the directory.
func OpenVaultDir(dir string, password []byte) (*Vault, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		zcrypto.Erase(password)
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return OpenVault(zfilesystem.NewOSFileSystem(dir), password)
}

// IsFirstRun reports whether no vault has been initialised in dir yet.
func IsFirstRun(dir string) bool {
	_, err := os.Stat(dir + "/salt")
	return err != nil
}

// GetItem returns the document stored under key.
func (v *Vault) GetItem(ctx context.Context, key string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	it, err := v.items.Get(key)
	if err != nil {
		if errors.Is(err, zstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get item %s: %w", key, err)
	}

	return it.Data, nil
}

// SetItem stores value under key.
func (v *Vault) SetItem(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := marshal(value)
	if err != nil {
		return fmt.Errorf("set item %s: marshal: %w", key, err)
	}

	if err := v.items.Put(key, item{Key: key, Data: data}); err != nil {
		return fmt.Errorf("set item %s: %w", key, err)
	}
	return nil
}

// Close locks the vault.
func (v *Vault) Close() error {
	return v.store.Close()
}
