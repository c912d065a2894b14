package repository

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"xcar/internal/database"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	testDB      *sql.DB
	testMongoDB *mongo.Database
	// setupErr is set when the containers could not start; integration
	// tests skip instead of failing on machines without Docker.
	setupErr error
)

type teardownFunc func(context.Context, ...testcontainers.TerminateOption) error

func setupPostgres(ctx context.Context) (teardownFunc, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = database.OpenPostgres(ctx, connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(testDB, database.DialectPostgres, zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func setupMongo(ctx context.Context) (teardownFunc, error) {
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		return nil, err
	}

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		return mongoContainer.Terminate, err
	}

	client, err := database.ConnectMongo(ctx, uri)
	if err != nil {
		return mongoContainer.Terminate, err
	}

	testMongoDB = client.Database("xcar_test")
	if err := EnsureMongoIndexes(ctx, testMongoDB); err != nil {
		return mongoContainer.Terminate, err
	}

	return func(ctx context.Context, opts ...testcontainers.TerminateOption) error {
		_ = client.Disconnect(ctx)
		return mongoContainer.Terminate(ctx, opts...)
	}, nil
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	var teardowns []teardownFunc
	for _, setup := range []func(context.Context) (teardownFunc, error){setupPostgres, setupMongo} {
		teardown, err := setup(ctx)
		if teardown != nil {
			teardowns = append(teardowns, teardown)
		}
		if err != nil {
			log.Printf("integration containers unavailable: %v", err)
			setupErr = err
			break
		}
	}

	code := m.Run()

	for _, teardown := range teardowns {
		if err := teardown(ctx); err != nil {
			log.Printf("could not teardown container: %v", err)
		}
	}

	os.Exit(code)
}

func requireContainers(t *testing.T) {
	t.Helper()
	if setupErr != nil {
		t.Skipf("containers not available: %v", setupErr)
	}
}

// carRepositories returns every implementation backed by an empty store.
func carRepositories(t *testing.T) map[string]CarRepository {
	t.Helper()
	requireContainers(t)

	if _, err := testDB.Exec("DELETE FROM cars"); err != nil {
		t.Fatalf("Failed to clean cars table: %v", err)
	}
	if _, err := testMongoDB.Collection(CarsCollection).DeleteMany(context.Background(), map[string]any{}); err != nil {
		t.Fatalf("Failed to clean cars collection: %v", err)
	}

	return map[string]CarRepository{
		"postgres": NewCarRepository(testDB),
		"mongo":    NewMongoCarRepository(testMongoDB),
	}
}

func userRepositories(t *testing.T) map[string]UserRepository {
	t.Helper()
	requireContainers(t)

	if _, err := testDB.Exec("DELETE FROM users"); err != nil {
		t.Fatalf("Failed to clean users table: %v", err)
	}
	if _, err := testMongoDB.Collection(UsersCollection).DeleteMany(context.Background(), map[string]any{}); err != nil {
		t.Fatalf("Failed to clean users collection: %v", err)
	}

	return map[string]UserRepository{
		"postgres": NewUserRepository(testDB),
		"mongo":    NewMongoUserRepository(testMongoDB),
	}
}
