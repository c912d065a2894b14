package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidCar = errors.New("invalid car")
)

var validate = validator.New()

// Category is the fixed set of catalog classes.
type Category string

const (
	CategoryHypercar Category = "Hypercar"
	CategorySupercar Category = "Supercar"
	CategoryHybrid   Category = "Hybrid"
	CategoryGT       Category = "GT"

	// DefaultCategory is applied when a car is created without one.
	DefaultCategory = CategorySupercar
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryHypercar, CategorySupercar, CategoryHybrid, CategoryGT}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Car represents a catalog listing. ID is the single canonical identifier:
// locally generated ids and server-assigned ids live in the same field.
type Car struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Brand        string    `json:"brand" yaml:"brand"`
	Acceleration string    `json:"acceleration" yaml:"acceleration"`
	Power        string    `json:"power" yaml:"power"`
	Price        float64   `json:"price" yaml:"price"`
	Description  string    `json:"description" yaml:"description"`
	ImageURL     string    `json:"imageUrl" yaml:"imageUrl"`
	Category     Category  `json:"category" yaml:"category"`
	CreatedAt    time.Time `json:"createdAt,omitempty" yaml:"-"`
}

// CarInput carries the writable fields of a car.
type CarInput struct {
	Name         string   `json:"name" validate:"required"`
	Brand        string   `json:"brand" validate:"required"`
	Acceleration string   `json:"acceleration"`
	Power        string   `json:"power"`
	Price        float64  `json:"price" validate:"gte=0"`
	Description  string   `json:"description"`
	ImageURL     string   `json:"imageUrl"`
	Category     Category `json:"category" validate:"omitempty,oneof=Hypercar Supercar Hybrid GT"`
}

// Normalize fills defaults.
func (in CarInput) Normalize() CarInput {
	if in.Category == "" {
		in.Category = DefaultCategory
	}
	return in
}

// Validate checks the input after defaults are applied.
func (in CarInput) Validate() error {
	if err := validate.Struct(in.Normalize()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCar, err)
	}
	return nil
}

// Apply returns car with every input field copied over. The id and creation
// time are preserved.
func (in CarInput) Apply(car Car) Car {
	in = in.Normalize()
	car.Name = in.Name
	car.Brand = in.Brand
	car.Acceleration = in.Acceleration
	car.Power = in.Power
	car.Price = in.Price
	car.Description = in.Description
	car.ImageURL = in.ImageURL
	car.Category = in.Category
	return car
}

// CarPatch is a partial update; nil fields are left untouched.
type CarPatch struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Brand        *string   `json:"brand,omitempty" validate:"omitempty,min=1"`
	Acceleration *string   `json:"acceleration,omitempty"`
	Power        *string   `json:"power,omitempty"`
	Price        *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Description  *string   `json:"description,omitempty"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	Category     *Category `json:"category,omitempty" validate:"omitempty,oneof=Hypercar Supercar Hybrid GT"`
}

// Apply returns car with the non-nil patch fields applied.
func (p CarPatch) Apply(car Car) Car {
	if p.Name != nil {
		car.Name = *p.Name
	}
	if p.Brand != nil {
		car.Brand = *p.Brand
	}
	if p.Acceleration != nil {
		car.Acceleration = *p.Acceleration
	}
	if p.Power != nil {
		car.Power = *p.Power
	}
	if p.Price != nil {
		car.Price = *p.Price
	}
	if p.Description != nil {
		car.Description = *p.Description
	}
	if p.ImageURL != nil {
		car.ImageURL = *p.ImageURL
	}
	if p.Category != nil {
		car.Category = *p.Category
	}
	return car
}

// Validate checks the fields that are set.
func (p CarPatch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCar, err)
	}
	return nil
}

// PatchFromInput builds a patch that sets every field of in.
func PatchFromInput(in CarInput) CarPatch {
	in = in.Normalize()
	return CarPatch{
		Name:         &in.Name,
		Brand:        &in.Brand,
		Acceleration: &in.Acceleration,
		Power:        &in.Power,
		Price:        &in.Price,
		Description:  &in.Description,
		ImageURL:     &in.ImageURL,
		Category:     &in.Category,
	}
}

// IndexOfCar returns the position of id in cars, or -1.
func IndexOfCar(cars []Car, id string) int {
	for i, car := range cars {
		if car.ID == id {
			return i
		}
	}
	return -1
}
