// Package appstate is the storefront's application-state container: the
// signed-in session, cart, favorites and compare-list. Mutations are applied
// to a copy and handed to observers before they are committed, so an
// observer that fails (a full store, say) leaves the state untouched.
package appstate

import (
	"sync"

	"xcar/internal/domain"
)

// Slice names the part of the state a mutation touched.
type Slice int

const (
	SliceUser Slice = iota
	SliceCart
	SliceFavorites
	SliceCompare
)

func (s Slice) String() string {
	switch s {
	case SliceUser:
		return "user"
	case SliceCart:
		return "cart"
	case SliceFavorites:
		return "favorites"
	case SliceCompare:
		return "compare"
	default:
		return "unknown"
	}
}

// State is a snapshot of the container.
type State struct {
	User      *domain.Session
	Cart      []domain.CartItem
	Favorites []string
	Compare   []string
}

func (s State) clone() State {
	out := State{
		Cart:      append([]domain.CartItem(nil), s.Cart...),
		Favorites: append([]string(nil), s.Favorites...),
		Compare:   append([]string(nil), s.Compare...),
	}
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	return out
}

// Observer sees every committed change. Returning an error vetoes it.
// Observers run under the container lock and must not call back into it.
type Observer func(slice Slice, next State) error

type Container struct {
	mu        sync.Mutex
	state     State
	nextID    int
	observers map[int]Observer
}

// New returns a container holding initial.
func New(initial State) *Container {
	return &Container{
		state:     initial.clone(),
		observers: make(map[int]Observer),
	}
}

// Subscribe adds an observer and returns a function that removes it.
func (c *Container) Subscribe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.observers[id] = o
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// mutate runs change on a copy. When change reports no difference nothing is
// published.
func (c *Container) mutate(slice Slice, change func(s *State) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.clone()
	if !change(&next) {
		return nil
	}
	for _, o := range c.observers {
		if err := o(slice, next.clone()); err != nil {
			return err
		}
	}
	c.state = next
	return nil
}

// AddToCart increments the item for carID, adding it with quantity 1 when
// absent.
func (c *Container) AddToCart(carID string) error {
	return c.mutate(SliceCart, func(s *State) bool {
		for i := range s.Cart {
			if s.Cart[i].CarID == carID {
				s.Cart[i].Quantity++
				return true
			}
		}
		s.Cart = append(s.Cart, domain.CartItem{CarID: carID, Quantity: 1})
		return true
	})
}

// RemoveFromCart drops the whole item for carID. Removing an absent item is
// a no-op.
func (c *Container) RemoveFromCart(carID string) error {
	return c.mutate(SliceCart, func(s *State) bool {
		for i := range s.Cart {
			if s.Cart[i].CarID == carID {
				s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ClearCart empties the cart.
func (c *Container) ClearCart() error {
	return c.mutate(SliceCart, func(s *State) bool {
		if len(s.Cart) == 0 {
			return false
		}
		s.Cart = nil
		return true
	})
}

// ToggleFavorite flips carID's membership in favorites.
func (c *Container) ToggleFavorite(carID string) error {
	return c.mutate(SliceFavorites, func(s *State) bool {
		s.Favorites = toggle(s.Favorites, carID)
		return true
	})
}

// ToggleCompare flips carID's membership in the compare-list. Adding beyond
// domain.CompareLimit is silently ignored.
func (c *Container) ToggleCompare(carID string) error {
	return c.mutate(SliceCompare, func(s *State) bool {
		if !contains(s.Compare, carID) && len(s.Compare) >= domain.CompareLimit {
			return false
		}
		s.Compare = toggle(s.Compare, carID)
		return true
	})
}

// Login replaces the session.
func (c *Container) Login(session domain.Session) error {
	return c.mutate(SliceUser, func(s *State) bool {
		s.User = &session
		return true
	})
}

// Logout clears the session.
func (c *Container) Logout() error {
	return c.mutate(SliceUser, func(s *State) bool {
		if s.User == nil {
			return false
		}
		s.User = nil
		return true
	})
}

// CartCount is the number of units in the cart.
func (c *Container) CartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, item := range c.state.Cart {
		n += item.Quantity
	}
	return n
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func toggle(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return append(ids, id)
}
