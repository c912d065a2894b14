package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xcar/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// carDocument holds the structure of the cars collection
type carDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Brand        string             `bson:"brand"`
	Acceleration string             `bson:"acceleration"`
	Power        string             `bson:"power"`
	Price        float64            `bson:"price"`
	Description  string             `bson:"description"`
	ImageURL     string             `bson:"imageUrl"`
	Category     string             `bson:"category"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d carDocument) toDomain() domain.Car {
	return domain.Car{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Brand:        d.Brand,
		Acceleration: d.Acceleration,
		Power:        d.Power,
		Price:        d.Price,
		Description:  d.Description,
		ImageURL:     d.ImageURL,
		Category:     domain.Category(d.Category),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}

type mongoCarRepository struct {
	cars *mongo.Collection
}

// NewMongoCarRepository creates a MongoDB-backed CarRepository
func NewMongoCarRepository(db *mongo.Database) CarRepository {
	return &mongoCarRepository{cars: db.Collection(CarsCollection)}
}

func (r *mongoCarRepository) Create(ctx context.Context, car *domain.Car) error {
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}
	doc := carDocument{
		ID:           primitive.NewObjectID(),
		Name:         car.Name,
		Brand:        car.Brand,
		Acceleration: car.Acceleration,
		Power:        car.Power,
		Price:        car.Price,
		Description:  car.Description,
		ImageURL:     car.ImageURL,
		Category:     string(car.Category),
		// Mongo stores milliseconds.
		CreatedAt: car.CreatedAt.Truncate(time.Millisecond),
	}

	if _, err := r.cars.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create car: %w", err)
	}

	car.ID = doc.ID.Hex()
	car.CreatedAt = doc.CreatedAt
	return nil
}

// patchDocument lists the fields a patch sets.
func patchDocument(patch domain.CarPatch) bson.D {
	set := bson.D{}
	add := func(key string, value any) {
		set = append(set, bson.E{Key: key, Value: value})
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Brand != nil {
		add("brand", *patch.Brand)
	}
	if patch.Acceleration != nil {
		add("acceleration", *patch.Acceleration)
	}
	if patch.Power != nil {
		add("power", *patch.Power)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ImageURL != nil {
		add("imageUrl", *patch.ImageURL)
	}
	if patch.Category != nil {
		add("category", string(*patch.Category))
	}
	return set
}

func (r *mongoCarRepository) Update(ctx context.Context, id string, patch domain.CarPatch) (*domain.Car, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCarNotFound
	}

	set := patchDocument(patch)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	var doc carDocument
	err = r.cars.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to update car: %w", err)
	}

	car := doc.toDomain()
	return &car, nil
}

func (r *mongoCarRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrCarNotFound
	}

	result, err := r.cars.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCarNotFound
	}
	return nil
}

func (r *mongoCarRepository) FindByID(ctx context.Context, id string) (*domain.Car, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCarNotFound
	}

	var doc carDocument
	if err := r.cars.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}

	car := doc.toDomain()
	return &car, nil
}

func (r *mongoCarRepository) List(ctx context.Context) ([]domain.Car, error) {
	cursor, err := r.cars.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	defer cursor.Close(ctx)

	cars := []domain.Car{}
	for cursor.Next(ctx) {
		var doc carDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode car: %w", err)
		}
		cars = append(cars, doc.toDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cars: %w", err)
	}

	return cars, nil
}
