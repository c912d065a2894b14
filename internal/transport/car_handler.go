package transport

import (
	"errors"
	"net/http"
	"time"

	"xcar/internal/domain"
	"xcar/internal/middleware"
	"xcar/internal/repository"
	"xcar/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CarResponse is a car as the API encodes it. The identifier is named _id.
type CarResponse struct {
	ID           string          `json:"_id"`
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

func toCarResponse(car domain.Car) CarResponse {
	return CarResponse{
		ID:           car.ID,
		Name:         car.Name,
		Brand:        car.Brand,
		Acceleration: car.Acceleration,
		Power:        car.Power,
		Price:        car.Price,
		Description:  car.Description,
		ImageURL:     car.ImageURL,
		Category:     car.Category,
		CreatedAt:    car.CreatedAt,
	}
}

// CarHandler handles HTTP requests for the catalog
type CarHandler struct {
	carService service.CarService
	logger     *zap.Logger
}

// NewCarHandler creates a new CarHandler
func NewCarHandler(carService service.CarService, logger *zap.Logger) *CarHandler {
	return &CarHandler{
		carService: carService,
		logger:     logger,
	}
}

// RegisterRoutes registers the catalog routes. Mutations run behind the
// given middlewares; reads are always public.
func (h *CarHandler) RegisterRoutes(r chi.Router, mutationMiddlewares ...func(http.Handler) http.Handler) {
	r.Route("/api/cars", func(r chi.Router) {
		r.Get("/", h.List)

		r.Group(func(r chi.Router) {
			r.Use(mutationMiddlewares...)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles GET /api/cars
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) {
	cars, err := h.carService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list cars", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list cars")
		return
	}

	response := make([]CarResponse, 0, len(cars))
	for _, car := range cars {
		response = append(response, toCarResponse(car))
	}
	middleware.RespondWithJSON(w, http.StatusOK, response)
}

// Create handles POST /api/cars
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CarInput
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Car validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	car, err := h.carService.Create(r.Context(), req)
	if err != nil {
		h.respondWithServiceError(w, "create", err)
		return
	}

	h.logger.Info("Car created", zap.String("car_id", car.ID), zap.String("name", car.Name))
	middleware.RespondWithJSON(w, http.StatusCreated, toCarResponse(*car))
}

// Update handles PUT /api/cars/{id}
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req domain.CarPatch
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Car patch validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	car, err := h.carService.Update(r.Context(), id, req)
	if err != nil {
		h.respondWithServiceError(w, "update", err)
		return
	}

	h.logger.Info("Car updated", zap.String("car_id", car.ID))
	middleware.RespondWithJSON(w, http.StatusOK, toCarResponse(*car))
}

// Delete handles DELETE /api/cars/{id}
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.carService.Delete(r.Context(), id); err != nil {
		h.respondWithServiceError(w, "delete", err)
		return
	}

	h.logger.Info("Car deleted", zap.String("car_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (h *CarHandler) respondWithServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrCarNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "car not found")
	case errors.Is(err, domain.ErrInvalidCar):
		middleware.RespondWithErrorCode(w, http.StatusBadRequest, "INVALID_CAR", err.Error())
	default:
		h.logger.Error("Car operation failed", zap.String("op", op), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to "+op+" car")
	}
}
