package service

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"xcar/internal/domain"
	"xcar/internal/repository"
)

// Mock repositories for testing
type mockUserRepository struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.Email] = &stored
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	found := *user
	return &found, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			found := *user
			return &found, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

type mockCarRepository struct {
	mu      sync.Mutex
	cars    []domain.Car
	nextID  int
	creates int
	updates int
}

func newMockCarRepository(cars ...domain.Car) *mockCarRepository {
	return &mockCarRepository{cars: cars}
}

func (m *mockCarRepository) Create(ctx context.Context, car *domain.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	m.nextID++
	car.ID = fmt.Sprintf("car-%d", m.nextID)
	m.cars = append(m.cars, *car)
	return nil
}

func (m *mockCarRepository) Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	i := domain.IndexOfCar(m.cars, id)
	if i < 0 {
		return nil, repository.ErrCarNotFound
	}
	m.cars[i] = patch.Apply(m.cars[i])
	car := m.cars[i]
	return &car, nil
}

func (m *mockCarRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := domain.IndexOfCar(m.cars, id)
	if i < 0 {
		return repository.ErrCarNotFound
	}
	m.cars = slices.Delete(m.cars, i, i+1)
	return nil
}

func (m *mockCarRepository) FindByID(ctx context.Context, id string) (*domain.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := domain.IndexOfCar(m.cars, id)
	if i < 0 {
		return nil, repository.ErrCarNotFound
	}
	car := m.cars[i]
	return &car, nil
}

func (m *mockCarRepository) List(ctx context.Context) ([]domain.Car, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.cars), nil
}
