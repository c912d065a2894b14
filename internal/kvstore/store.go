// Package kvstore is the small-value store: a persistent, synchronous,
// string-keyed store for session, cart, selection lists and the catalog
// snapshot. Writes are bounded by a quota, like browser local storage.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Keys used by the storefront.
const (
	KeyUser      = "xcar_user"
	KeyCart      = "xcar_cart"
	KeyFavorites = "xcar_favorites"
	KeyCompare   = "xcar_compare"
	KeyLocalCars = "xcar_local_cars"
	KeyHomeVideo = "xcar_home_video"
	KeyDemoUsers = "xcar_demo_users"
)

// DefaultQuota mirrors the usual browser local storage limit.
const DefaultQuota int64 = 5 * 1024 * 1024

// Store is a string key-value store. Get returns ErrNotFound for absent keys;
// Remove of an absent key is a no-op.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// entrySize is what one entry counts against the quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// GetJSON decodes the value at key into v. It reports false when the key is
// absent.
func GetJSON(s Store, key string, v interface{}) (bool, error) {
	raw, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, string(raw))
}
