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
)

// userDocument holds the structure of the users collection
type userDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	domain.User `bson:",inline"`
}

func (d userDocument) toDomain() *domain.User {
	user := d.User
	user.ID = d.ID.Hex()
	user.CreatedAt = user.CreatedAt.UTC()
	return &user
}

type mongoUserRepository struct {
	users *mongo.Collection
}

// NewMongoUserRepository creates a MongoDB-backed UserRepository. Duplicate
// detection needs the index from EnsureMongoIndexes.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection(UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.CreatedAt = user.CreatedAt.Truncate(time.Millisecond)

	doc := userDocument{ID: primitive.NewObjectID(), User: *user}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.findOne(ctx, bson.M{"email": email})
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, err
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := r.findOne(ctx, bson.M{"_id": objectID})
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, err
}
