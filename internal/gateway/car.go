package gateway

import (
	"time"

	"xcar/internal/domain"
)

// remoteCar is a car as the API encodes it. The server names its identifier
// _id; older payloads may carry id instead.
type remoteCar struct {
	RemoteID     string          `json:"_id"`
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand"`
	Acceleration string          `json:"acceleration"`
	Power        string          `json:"power"`
	Price        float64         `json:"price"`
	Description  string          `json:"description"`
	ImageURL     string          `json:"imageUrl"`
	Category     domain.Category `json:"category"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// toDomain maps the remote identifier onto the canonical id.
func (rc remoteCar) toDomain() domain.Car {
	id := rc.RemoteID
	if id == "" {
		id = rc.ID
	}
	category := rc.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	return domain.Car{
		ID:           id,
		Name:         rc.Name,
		Brand:        rc.Brand,
		Acceleration: rc.Acceleration,
		Power:        rc.Power,
		Price:        rc.Price,
		Description:  rc.Description,
		ImageURL:     rc.ImageURL,
		Category:     category,
		CreatedAt:    rc.CreatedAt,
	}
}
