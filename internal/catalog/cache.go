// Package catalog holds the in-memory car catalog. It refreshes once from the
// API and falls back to the last local snapshot, then the seed catalog. Admin
// mutations go to the API first and become local-only when it fails.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"xcar/internal/domain"
	"xcar/internal/kvstore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Remote is the subset of the API the catalog needs.
type Remote interface {
	ListCars(ctx context.Context) ([]domain.Car, error)
	CreateCar(ctx context.Context, token string, in domain.CarInput) (domain.Car, error)
	UpdateCar(ctx context.Context, token, id string, patch domain.CarPatch) (domain.Car, error)
	DeleteCar(ctx context.Context, token, id string) error
}

// Source tells where the current catalog came from.
type Source string

const (
	SourceSeed     Source = "seed"
	SourceRemote   Source = "remote"
	SourceSnapshot Source = "snapshot"
)

type Cache struct {
	remote Remote
	store  kvstore.Store
	logger *zap.Logger
	newID  func() string
	now    func() time.Time

	mu     sync.RWMutex
	cars   []domain.Car
	source Source
}

// NewCache starts with the seed catalog until Refresh runs.
func NewCache(remote Remote, store kvstore.Store, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		remote: remote,
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
		cars:   domain.DefaultCatalog(),
		source: SourceSeed,
	}
}

// Cars returns a copy of the catalog.
func (c *Cache) Cars() []domain.Car {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Car, len(c.cars))
	copy(out, c.cars)
	return out
}

// Source reports where the current catalog came from.
func (c *Cache) Source() Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Get looks a car up by id.
func (c *Cache) Get(id string) (domain.Car, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := domain.IndexOfCar(c.cars, id); i >= 0 {
		return c.cars[i], true
	}
	return domain.Car{}, false
}

// Refresh loads the catalog once. It never fails: an unreachable API resolves
// to the snapshot or the seed catalog. Results are not ordered against local
// mutations, so a slow fetch that lands after one replaces it.
func (c *Cache) Refresh(ctx context.Context) {
	cars, err := c.remote.ListCars(ctx)
	if err != nil {
		c.logger.Warn("Catalog refresh failed, using local data", zap.Error(err))
		c.loadFallback()
		return
	}

	if len(cars) == 0 {
		c.logger.Info("Remote catalog is empty, using seed catalog")
		c.replace(domain.DefaultCatalog(), SourceSeed)
		return
	}

	c.replace(cars, SourceRemote)
	if err := kvstore.SetJSON(c.store, kvstore.KeyLocalCars, cars); err != nil {
		c.logger.Warn("Failed to save catalog snapshot", zap.Error(err))
	}
	c.logger.Info("Catalog refreshed", zap.Int("cars", len(cars)))
}

func (c *Cache) loadFallback() {
	var snapshot []domain.Car
	found, err := kvstore.GetJSON(c.store, kvstore.KeyLocalCars, &snapshot)
	if err != nil {
		c.logger.Warn("Catalog snapshot unreadable, using seed catalog", zap.Error(err))
	}
	if err != nil || !found {
		c.replace(domain.DefaultCatalog(), SourceSeed)
		return
	}
	if snapshot == nil {
		snapshot = []domain.Car{}
	}
	c.replace(snapshot, SourceSnapshot)
}

func (c *Cache) replace(cars []domain.Car, source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cars = cars
	c.source = source
}

// Create adds a car. When the API fails the car gets a local id and lives in
// the snapshot only. New cars go to the front of the catalog.
func (c *Cache) Create(ctx context.Context, token string, in domain.CarInput) (domain.Car, error) {
	if err := in.Validate(); err != nil {
		return domain.Car{}, err
	}
	in = in.Normalize()

	car, err := c.remote.CreateCar(ctx, token, in)
	local := err != nil
	if local {
		c.logger.Warn("Create car failed remotely, saving locally", zap.Error(err))
		car = in.Apply(domain.Car{ID: c.newID(), CreatedAt: c.now().UTC()})
	}

	err = c.commit(local, func(cars []domain.Car) []domain.Car {
		return append([]domain.Car{car}, cars...)
	})
	if err != nil {
		return domain.Car{}, err
	}
	return car, nil
}

// Update applies patch to the car with id. It reports false when the car is
// unknown, which is a no-op.
func (c *Cache) Update(ctx context.Context, token, id string, patch domain.CarPatch) (domain.Car, bool, error) {
	if err := patch.Validate(); err != nil {
		return domain.Car{}, false, err
	}
	current, ok := c.Get(id)
	if !ok {
		return domain.Car{}, false, nil
	}

	car, err := c.remote.UpdateCar(ctx, token, id, patch)
	local := err != nil
	if local {
		c.logger.Warn("Update car failed remotely, saving locally", zap.String("car_id", id), zap.Error(err))
		car = patch.Apply(current)
	} else if car.ID == "" {
		car.ID = id
	}

	err = c.commit(local, func(cars []domain.Car) []domain.Car {
		if i := domain.IndexOfCar(cars, id); i >= 0 {
			cars[i] = car
		}
		return cars
	})
	if err != nil {
		return domain.Car{}, false, err
	}
	return car, true, nil
}

// Delete removes the car with id. It reports false when the car is unknown.
func (c *Cache) Delete(ctx context.Context, token, id string) (bool, error) {
	if _, ok := c.Get(id); !ok {
		return false, nil
	}

	err := c.remote.DeleteCar(ctx, token, id)
	local := err != nil
	if local {
		c.logger.Warn("Delete car failed remotely, deleting locally", zap.String("car_id", id), zap.Error(err))
	}

	err = c.commit(local, func(cars []domain.Car) []domain.Car {
		if i := domain.IndexOfCar(cars, id); i >= 0 {
			cars = append(cars[:i], cars[i+1:]...)
		}
		return cars
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// commit computes the next catalog from a copy, writes the snapshot, then
// swaps it in. A local-only change that cannot be saved is abandoned; after
// a remote success the snapshot write is best effort.
func (c *Cache) commit(local bool, change func([]domain.Car) []domain.Car) error {
	next := change(c.Cars())

	if err := kvstore.SetJSON(c.store, kvstore.KeyLocalCars, next); err != nil {
		if local {
			return fmt.Errorf("save catalog snapshot: %w", err)
		}
		c.logger.Warn("Failed to save catalog snapshot", zap.Error(err))
	}

	c.replace(next, c.sourceAfterCommit(local))
	return nil
}

func (c *Cache) sourceAfterCommit(local bool) Source {
	if local {
		return SourceSnapshot
	}
	return c.Source()
}
