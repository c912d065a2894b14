package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"xcar/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCarNotFound = errors.New("car not found")
)

// CarRepository defines the interface for catalog data access
type CarRepository interface {
	// Create assigns the car its id and stores it.
	Create(ctx context.Context, car *domain.Car) error
	// Update applies patch and returns the stored result.
	Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*domain.Car, error)
	// List returns every car, newest first.
	List(ctx context.Context) ([]domain.Car, error)
}

type carRepository struct {
	db *sql.DB
}

// NewCarRepository creates a PostgreSQL-backed CarRepository
func NewCarRepository(db *sql.DB) CarRepository {
	return &carRepository{db: db}
}

const carColumns = `id, name, brand, acceleration, power, price, description, image_url, category, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (*domain.Car, error) {
	var (
		car      domain.Car
		id       uuid.UUID
		category string
	)
	err := row.Scan(
		&id,
		&car.Name,
		&car.Brand,
		&car.Acceleration,
		&car.Power,
		&car.Price,
		&car.Description,
		&car.ImageURL,
		&category,
		&car.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	car.ID = id.String()
	car.Category = domain.Category(category)
	car.CreatedAt = car.CreatedAt.UTC()
	return &car, nil
}

// Create inserts a new car using parameterized queries
func (r *carRepository) Create(ctx context.Context, car *domain.Car) error {
	query := `
		INSERT INTO cars (id, name, brand, acceleration, power, price, description, image_url, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	id := uuid.New()
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}
	// TIMESTAMP keeps microseconds.
	car.CreatedAt = car.CreatedAt.Truncate(time.Microsecond)

	_, err := r.db.ExecContext(
		ctx,
		query,
		id,
		car.Name,
		car.Brand,
		car.Acceleration,
		car.Power,
		car.Price,
		car.Description,
		car.ImageURL,
		string(car.Category),
		car.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}

	car.ID = id.String()
	return nil
}

// Update changes only the columns the patch sets
func (r *carRepository) Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error) {
	carID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCarNotFound
	}

	query := `
		UPDATE cars
		SET name = COALESCE($2, name),
		    brand = COALESCE($3, brand),
		    acceleration = COALESCE($4, acceleration),
		    power = COALESCE($5, power),
		    price = COALESCE($6, price),
		    description = COALESCE($7, description),
		    image_url = COALESCE($8, image_url),
		    category = COALESCE($9, category)
		WHERE id = $1
		RETURNING ` + carColumns

	var category *string
	if patch.Category != nil {
		c := string(*patch.Category)
		category = &c
	}

	car, err := scanCar(r.db.QueryRowContext(
		ctx,
		query,
		carID,
		patch.Name,
		patch.Brand,
		patch.Acceleration,
		patch.Power,
		patch.Price,
		patch.Description,
		patch.ImageURL,
		category,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to update car: %w", err)
	}

	return car, nil
}

// Delete removes a car using parameterized queries
func (r *carRepository) Delete(ctx context.Context, id string) error {
	carID, err := uuid.Parse(id)
	if err != nil {
		return ErrCarNotFound
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM cars WHERE id = $1`, carID)
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCarNotFound
	}

	return nil
}

// FindByID retrieves a car by ID
func (r *carRepository) FindByID(ctx context.Context, id string) (*domain.Car, error) {
	carID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCarNotFound
	}

	car, err := scanCar(r.db.QueryRowContext(ctx, `SELECT `+carColumns+` FROM cars WHERE id = $1`, carID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}

	return car, nil
}

// List retrieves all cars sorted by creation time, newest first
func (r *carRepository) List(ctx context.Context) ([]domain.Car, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+carColumns+` FROM cars ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer rows.Close()

	cars := []domain.Car{}
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan car: %w", err)
		}
		cars = append(cars, *car)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cars: %w", err)
	}

	return cars, nil
}
