package appstate

import (
	"fmt"

	"xcar/internal/domain"
	"xcar/internal/kvstore"

	"go.uber.org/zap"
)

// Persister returns an observer that mirrors each changed slice to store.
func Persister(store kvstore.Store) Observer {
	return func(slice Slice, next State) error {
		var err error
		switch slice {
		case SliceUser:
			if next.User == nil {
				err = store.Remove(kvstore.KeyUser)
			} else {
				err = kvstore.SetJSON(store, kvstore.KeyUser, next.User)
			}
		case SliceCart:
			err = kvstore.SetJSON(store, kvstore.KeyCart, nonNilItems(next.Cart))
		case SliceFavorites:
			err = kvstore.SetJSON(store, kvstore.KeyFavorites, nonNil(next.Favorites))
		case SliceCompare:
			err = kvstore.SetJSON(store, kvstore.KeyCompare, nonNil(next.Compare))
		}
		if err != nil {
			return fmt.Errorf("persist %s: %w", slice, err)
		}
		return nil
	}
}

// Load hydrates a state from store. Unreadable entries are logged and
// treated as empty.
func Load(store kvstore.Store, logger *zap.Logger) State {
	if logger == nil {
		logger = zap.NewNop()
	}
	var state State

	if user, found := load[domain.Session](store, kvstore.KeyUser, logger); found {
		state.User = &user
	}
	state.Cart, _ = load[[]domain.CartItem](store, kvstore.KeyCart, logger)
	state.Favorites, _ = load[[]string](store, kvstore.KeyFavorites, logger)
	state.Compare, _ = load[[]string](store, kvstore.KeyCompare, logger)

	state.Cart = sanitizeCart(state.Cart)
	state.Favorites = dedupe(state.Favorites, 0)
	state.Compare = dedupe(state.Compare, domain.CompareLimit)
	return state
}

// load decodes key into a fresh value so a half-decoded entry is never
// returned.
func load[T any](store kvstore.Store, key string, logger *zap.Logger) (T, bool) {
	var v T
	found, err := kvstore.GetJSON(store, key, &v)
	if err != nil {
		logger.Warn("Ignoring unreadable stored state", zap.String("key", key), zap.Error(err))
		var zero T
		return zero, false
	}
	return v, found
}

// sanitizeCart merges duplicate ids and drops non-positive quantities.
func sanitizeCart(items []domain.CartItem) []domain.CartItem {
	var out []domain.CartItem
	index := make(map[string]int)
	for _, item := range items {
		if item.CarID == "" || item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.CarID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.CarID] = len(out)
		out = append(out, item)
	}
	return out
}

func dedupe(ids []string, limit int) []string {
	var out []string
	for _, id := range ids {
		if id == "" || contains(out, id) {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, id)
	}
	return out
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nonNilItems(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return []domain.CartItem{}
	}
	return items
}
