package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"xcar/internal/domain"
	"xcar/internal/repository"
)

// CarService defines the interface for catalog business logic
type CarService interface {
	List(ctx context.Context) ([]domain.Car, error)
	Create(ctx context.Context, in domain.CarInput) (*domain.Car, error)
	Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error)
	Delete(ctx context.Context, id string) error
}

type carService struct {
	carRepo repository.CarRepository
	now     func() time.Time
}

// NewCarService creates a new instance of CarService
func NewCarService(carRepo repository.CarRepository) CarService {
	return &carService{carRepo: carRepo, now: time.Now}
}

// List returns the catalog, newest first
func (s *carService) List(ctx context.Context) ([]domain.Car, error) {
	cars, err := s.carRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	return cars, nil
}

// Create validates the input, applies the default category and stores the car
func (s *carService) Create(ctx context.Context, in domain.CarInput) (*domain.Car, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	car := in.Apply(domain.Car{CreatedAt: s.now().UTC()})
	if err := s.carRepo.Create(ctx, &car); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}
	return &car, nil
}

// Update applies a partial update; only provided fields change
func (s *carService) Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if (patch.Name != nil && strings.TrimSpace(*patch.Name) == "") ||
		(patch.Brand != nil && strings.TrimSpace(*patch.Brand) == "") {
		return nil, fmt.Errorf("%w: name and brand cannot be blank", domain.ErrInvalidCar)
	}

	car, err := s.carRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return car, nil
}

// Delete removes a car
func (s *carService) Delete(ctx context.Context, id string) error {
	return s.carRepo.Delete(ctx, id)
}
