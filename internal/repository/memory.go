package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"xcar/internal/domain"

	"github.com/google/uuid"
)

// MemoryCarRepository keeps the catalog in process memory. It backs the
// "memory" storage driver used for demos and tests.
type MemoryCarRepository struct {
	mu   sync.RWMutex
	cars []domain.Car
}

// NewMemoryCarRepository creates a CarRepository seeded with cars.
func NewMemoryCarRepository(cars ...domain.Car) *MemoryCarRepository {
	return &MemoryCarRepository{cars: slices.Clone(cars)}
}

func (r *MemoryCarRepository) Create(ctx context.Context, car *domain.Car) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}
	car.ID = uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cars = append(r.cars, *car)
	return nil
}

func (r *MemoryCarRepository) Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := domain.IndexOfCar(r.cars, id)
	if i < 0 {
		return nil, ErrCarNotFound
	}
	r.cars[i] = patch.Apply(r.cars[i])
	car := r.cars[i]
	return &car, nil
}

func (r *MemoryCarRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i := domain.IndexOfCar(r.cars, id)
	if i < 0 {
		return ErrCarNotFound
	}
	r.cars = slices.Delete(r.cars, i, i+1)
	return nil
}

func (r *MemoryCarRepository) FindByID(ctx context.Context, id string) (*domain.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := domain.IndexOfCar(r.cars, id)
	if i < 0 {
		return nil, ErrCarNotFound
	}
	car := r.cars[i]
	return &car, nil
}

func (r *MemoryCarRepository) List(ctx context.Context) ([]domain.Car, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	cars := slices.Clone(r.cars)
	r.mu.RUnlock()

	if cars == nil {
		cars = []domain.Car{}
	}
	slices.SortStableFunc(cars, func(a, b domain.Car) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return cars, nil
}

// MemoryUserRepository keeps accounts in process memory, keyed by email.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository creates an empty UserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return ErrUserAlreadyExists
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.ID = uuid.NewString()
	r.users[user.Email] = *user
	return nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.ID == id {
			return &user, nil
		}
	}
	return nil, ErrUserNotFound
}
