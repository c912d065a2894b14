package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"xcar/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func strPtr(s string) *string { return &s }

// Feature: xcar-storefront, Property 17: Car creation preserves attributes
func TestProperty_CarCreationPreservesAttributes(t *testing.T) {
	for name, repo := range carRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			properties := gopter.NewProperties(nil)

			properties.Property("creating and retrieving a car preserves all attributes", prop.ForAll(
				func(carName, brand string, price int, category domain.Category) bool {
					car := domain.CarInput{
						Name:         carName,
						Brand:        brand,
						Acceleration: "2.3s",
						Power:        "1578 HP",
						Price:        float64(price),
						Description:  "Test listing",
						ImageURL:     "https://example.com/car.jpg",
						Category:     category,
					}.Apply(domain.Car{})

					if err := repo.Create(ctx, &car); err != nil {
						t.Logf("Failed to create car: %v", err)
						return false
					}
					if car.ID == "" {
						return false
					}

					found, err := repo.FindByID(ctx, car.ID)
					if err != nil {
						t.Logf("Failed to find car: %v", err)
						return false
					}

					return found.ID == car.ID &&
						found.Name == car.Name &&
						found.Brand == car.Brand &&
						found.Acceleration == car.Acceleration &&
						found.Power == car.Power &&
						found.Price == car.Price &&
						found.Description == car.Description &&
						found.ImageURL == car.ImageURL &&
						found.Category == car.Category &&
						found.CreatedAt.Equal(car.CreatedAt)
				},
				gen.RegexMatch(`[A-Z][a-z]{2,12}`),
				gen.RegexMatch(`[A-Z]{3,12}`),
				gen.IntRange(0, 5000000),
				gen.OneConstOf(domain.CategoryHypercar, domain.CategorySupercar, domain.CategoryHybrid, domain.CategoryGT),
			))

			properties.TestingRun(t, gopter.ConsoleReporter(false))
		})
	}
}

func TestCarListNewestFirst(t *testing.T) {
	for name, repo := range carRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

			for i, carName := range []string{"Oldest", "Middle", "Newest"} {
				car := domain.Car{
					Name:      carName,
					Brand:     "BRAND",
					Price:     1000,
					Category:  domain.CategoryGT,
					CreatedAt: base.Add(time.Duration(i) * time.Hour),
				}
				if err := repo.Create(ctx, &car); err != nil {
					t.Fatalf("Create failed: %v", err)
				}
			}

			cars, err := repo.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(cars) != 3 {
				t.Fatalf("expected 3 cars, got %d", len(cars))
			}
			for i, want := range []string{"Newest", "Middle", "Oldest"} {
				if cars[i].Name != want {
					t.Errorf("position %d: expected %s, got %s", i, want, cars[i].Name)
				}
			}
		})
	}
}

func TestCarListEmptyIsNotNil(t *testing.T) {
	for name, repo := range carRepositories(t) {
		t.Run(name, func(t *testing.T) {
			cars, err := repo.List(context.Background())
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if cars == nil || len(cars) != 0 {
				t.Errorf("expected empty non-nil list, got %#v", cars)
			}
		})
	}
}

func TestCarUpdateChangesOnlyPatchedFields(t *testing.T) {
	for name, repo := range carRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			car := domain.Car{
				Name:        "Roma",
				Brand:       "FERRARI",
				Power:       "612 HP",
				Price:       247000,
				Description: "Grand tourer",
				Category:    domain.CategoryGT,
			}
			if err := repo.Create(ctx, &car); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			price := 250000.0
			hybrid := domain.CategoryHybrid
			updated, err := repo.Update(ctx, car.ID, domain.CarPatch{
				Price:    &price,
				Category: &hybrid,
				Power:    strPtr("620 HP"),
			})
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}

			if updated.ID != car.ID || updated.Name != "Roma" || updated.Description != "Grand tourer" {
				t.Errorf("untouched fields changed: %+v", updated)
			}
			if updated.Price != 250000 || updated.Category != domain.CategoryHybrid || updated.Power != "620 HP" {
				t.Errorf("patched fields not applied: %+v", updated)
			}

			same, err := repo.Update(ctx, car.ID, domain.CarPatch{})
			if err != nil {
				t.Fatalf("empty Update failed: %v", err)
			}
			if same.Price != 250000 {
				t.Errorf("empty patch changed the car: %+v", same)
			}
		})
	}
}

func TestCarMissingOrMalformedIDs(t *testing.T) {
	missing := map[string]string{
		"postgres": "7a4f3a4e-5f1b-4a51-9d1e-2f0f6c1b9a10",
		"mongo":    "65a1b2c3d4e5f60718293a4b",
	}

	for name, repo := range carRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []string{missing[name], "not-an-id", ""} {
				if _, err := repo.FindByID(ctx, id); !errors.Is(err, ErrCarNotFound) {
					t.Errorf("FindByID(%q): expected ErrCarNotFound, got %v", id, err)
				}
				if _, err := repo.Update(ctx, id, domain.CarPatch{Name: strPtr("x")}); !errors.Is(err, ErrCarNotFound) {
					t.Errorf("Update(%q): expected ErrCarNotFound, got %v", id, err)
				}
				if err := repo.Delete(ctx, id); !errors.Is(err, ErrCarNotFound) {
					t.Errorf("Delete(%q): expected ErrCarNotFound, got %v", id, err)
				}
			}
		})
	}
}

func TestCarDelete(t *testing.T) {
	for name, repo := range carRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			car := domain.Car{Name: "SVJ", Brand: "LAMBORGHINI", Category: domain.CategorySupercar}
			if err := repo.Create(ctx, &car); err != nil {
				t.Fatalf("Create failed: %v", err)
			}

			if err := repo.Delete(ctx, car.ID); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if err := repo.Delete(ctx, car.ID); !errors.Is(err, ErrCarNotFound) {
				t.Errorf("second Delete: expected ErrCarNotFound, got %v", err)
			}
		})
	}
}
