package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"xcar/internal/domain"
	"xcar/internal/gateway"
	"xcar/internal/kvstore"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// fakeRemote is a hand-rolled Remote.
type fakeRemote struct {
	cars    []domain.Car
	down    bool
	created []domain.CarInput
	updated []string
	deleted []string
	tokens  []string
}

func (f *fakeRemote) fail(op string) error {
	return fmt.Errorf("%w: %s: connection refused", gateway.ErrUnreachable, op)
}

func (f *fakeRemote) ListCars(ctx context.Context) ([]domain.Car, error) {
	if f.down {
		return nil, f.fail("list cars")
	}
	return f.cars, nil
}

func (f *fakeRemote) CreateCar(ctx context.Context, token string, in domain.CarInput) (domain.Car, error) {
	f.tokens = append(f.tokens, token)
	if f.down {
		return domain.Car{}, f.fail("create car")
	}
	f.created = append(f.created, in)
	return in.Apply(domain.Car{ID: fmt.Sprintf("remote-%d", len(f.created))}), nil
}

func (f *fakeRemote) UpdateCar(ctx context.Context, token, id string, patch domain.CarPatch) (domain.Car, error) {
	if f.down {
		return domain.Car{}, f.fail("update car")
	}
	f.updated = append(f.updated, id)
	for _, car := range f.cars {
		if car.ID == id {
			return patch.Apply(car), nil
		}
	}
	return patch.Apply(domain.Car{ID: id}), nil
}

func (f *fakeRemote) DeleteCar(ctx context.Context, token, id string) error {
	if f.down {
		return f.fail("delete car")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func sameCars(a, b []domain.Car) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name || a[i].Brand != b[i].Brand ||
			a[i].Price != b[i].Price || a[i].Category != b[i].Category {
			return false
		}
	}
	return true
}

func genCatalog() gopter.Gen {
	return gen.SliceOf(gen.Identifier()).Map(func(names []string) []domain.Car {
		cars := make([]domain.Car, len(names))
		for i, name := range names {
			cars[i] = domain.Car{
				ID:       fmt.Sprintf("car-%d", i),
				Name:     name,
				Brand:    "BRAND",
				Price:    float64(i) * 1000.5,
				Category: domain.Categories()[i%len(domain.Categories())],
			}
		}
		return cars
	})
}

// Feature: xcar-storefront, Property 5: Empty remote catalog falls back to the seed
func TestProperty_EmptyRemoteCatalogUsesSeed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("an empty listing yields the seed catalog and keeps the snapshot", prop.ForAll(
		func(snapshot []domain.Car) bool {
			store := kvstore.NewMemoryStore(0)
			if err := kvstore.SetJSON(store, kvstore.KeyLocalCars, snapshot); err != nil {
				return false
			}

			cache := NewCache(&fakeRemote{cars: []domain.Car{}}, store, nil)
			cache.Refresh(context.Background())

			var stored []domain.Car
			if _, err := kvstore.GetJSON(store, kvstore.KeyLocalCars, &stored); err != nil {
				return false
			}
			return sameCars(cache.Cars(), domain.DefaultCatalog()) &&
				cache.Source() == SourceSeed &&
				sameCars(stored, snapshot)
		},
		genCatalog(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: xcar-storefront, Property 6: Unreachable API restores the snapshot
func TestProperty_FailureRestoresSnapshot(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the catalog equals the last snapshot", prop.ForAll(
		func(snapshot []domain.Car) bool {
			store := kvstore.NewMemoryStore(0)
			if err := kvstore.SetJSON(store, kvstore.KeyLocalCars, snapshot); err != nil {
				return false
			}

			cache := NewCache(&fakeRemote{down: true}, store, nil)
			cache.Refresh(context.Background())

			return sameCars(cache.Cars(), snapshot) && cache.Source() == SourceSnapshot
		},
		genCatalog(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRefreshWithoutSnapshotUsesSeed(t *testing.T) {
	cache := NewCache(&fakeRemote{down: true}, kvstore.NewMemoryStore(0), nil)
	cache.Refresh(context.Background())

	if !sameCars(cache.Cars(), domain.DefaultCatalog()) {
		t.Fatal("expected seed catalog")
	}
	if cache.Source() != SourceSeed {
		t.Errorf("expected seed source, got %s", cache.Source())
	}
}

func TestRefreshWithCorruptSnapshotUsesSeed(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	_ = store.Set(kvstore.KeyLocalCars, "{not json")

	cache := NewCache(&fakeRemote{down: true}, store, nil)
	cache.Refresh(context.Background())

	if !sameCars(cache.Cars(), domain.DefaultCatalog()) {
		t.Fatal("expected seed catalog")
	}
}

func TestRefreshSuccessWritesSnapshot(t *testing.T) {
	remote := &fakeRemote{cars: []domain.Car{{ID: "a1", Name: "Valkyrie", Brand: "ASTON MARTIN", Price: 3000000, Category: domain.CategoryHypercar}}}
	store := kvstore.NewMemoryStore(0)

	cache := NewCache(remote, store, nil)
	cache.Refresh(context.Background())

	if !sameCars(cache.Cars(), remote.cars) || cache.Source() != SourceRemote {
		t.Fatalf("expected remote catalog, got %+v from %s", cache.Cars(), cache.Source())
	}

	var stored []domain.Car
	if found, _ := kvstore.GetJSON(store, kvstore.KeyLocalCars, &stored); !found || !sameCars(stored, remote.cars) {
		t.Errorf("snapshot not written: %+v", stored)
	}
}

// Feature: xcar-storefront, Property 8: Offline creates survive a reload
func TestProperty_OfflineCreateSurvivesReload(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the created car is first in memory and in the reloaded catalog", prop.ForAll(
		func(name string, price float64) bool {
			store := kvstore.NewMemoryStore(0)
			remote := &fakeRemote{down: true}

			cache := NewCache(remote, store, nil)
			cache.Refresh(context.Background())
			before := len(cache.Cars())

			car, err := cache.Create(context.Background(), "", domain.CarInput{Name: name, Brand: "PAGANI", Price: price})
			if err != nil || car.ID == "" {
				return false
			}
			if cars := cache.Cars(); len(cars) != before+1 || cars[0].ID != car.ID {
				return false
			}

			reloaded := NewCache(remote, store, nil)
			reloaded.Refresh(context.Background())
			got, ok := reloaded.Get(car.ID)
			return ok && got.Name == name && got.Category == domain.DefaultCategory
		},
		gen.Identifier(),
		gen.Float64Range(0, 5_000_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCreateRemoteSuccessUsesServerID(t *testing.T) {
	remote := &fakeRemote{cars: domain.DefaultCatalog()}
	cache := NewCache(remote, kvstore.NewMemoryStore(0), nil)
	cache.Refresh(context.Background())

	car, err := cache.Create(context.Background(), "tok", domain.CarInput{Name: "Utopia", Brand: "PAGANI", Price: 2500000})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if car.ID != "remote-1" {
		t.Errorf("expected server id, got %q", car.ID)
	}
	if len(remote.tokens) != 1 || remote.tokens[0] != "tok" {
		t.Errorf("token not forwarded: %v", remote.tokens)
	}
	if cache.Cars()[0].ID != "remote-1" {
		t.Error("new car should be first")
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	remote := &fakeRemote{}
	cache := NewCache(remote, kvstore.NewMemoryStore(0), nil)

	_, err := cache.Create(context.Background(), "", domain.CarInput{Brand: "X", Price: -5})
	if !errors.Is(err, domain.ErrInvalidCar) {
		t.Fatalf("expected ErrInvalidCar, got %v", err)
	}
	if len(remote.tokens) != 0 {
		t.Error("invalid input must not reach the API")
	}
}

func TestCreateOfflineQuotaExceededLeavesCatalog(t *testing.T) {
	store := kvstore.NewMemoryStore(64)
	cache := NewCache(&fakeRemote{down: true}, store, nil)
	before := cache.Cars()

	_, err := cache.Create(context.Background(), "", domain.CarInput{Name: "Jesko", Brand: "KOENIGSEGG", Price: 3000000})
	if !errors.Is(err, kvstore.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if !sameCars(cache.Cars(), before) {
		t.Error("a failed local write must not change the catalog")
	}
}

func TestUpdateOfflineAppliesPatchLocally(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	cache := NewCache(&fakeRemote{down: true}, store, nil)
	cache.Refresh(context.Background())

	price := 499000.0
	car, ok, err := cache.Update(context.Background(), "", "2", domain.CarPatch{Price: &price})
	if err != nil || !ok {
		t.Fatalf("Update failed: ok=%v err=%v", ok, err)
	}
	if car.Price != price || car.Name != "Aventador SVJ" {
		t.Errorf("unexpected car %+v", car)
	}

	reloaded := NewCache(&fakeRemote{down: true}, store, nil)
	reloaded.Refresh(context.Background())
	if got, _ := reloaded.Get("2"); got.Price != price {
		t.Errorf("patch not persisted, price %v", got.Price)
	}
}

func TestUpdateRemoteSuccess(t *testing.T) {
	remote := &fakeRemote{cars: domain.DefaultCatalog()}
	cache := NewCache(remote, kvstore.NewMemoryStore(0), nil)
	cache.Refresh(context.Background())

	name := "Chiron Super Sport"
	car, ok, err := cache.Update(context.Background(), "", "1", domain.CarPatch{Name: &name})
	if err != nil || !ok {
		t.Fatalf("Update failed: ok=%v err=%v", ok, err)
	}
	if car.Name != name || len(remote.updated) != 1 {
		t.Errorf("expected remote update, got %+v (%v)", car, remote.updated)
	}
}

func TestUpdateAndDeleteUnknownIDAreNoOps(t *testing.T) {
	remote := &fakeRemote{}
	cache := NewCache(remote, kvstore.NewMemoryStore(0), nil)
	before := cache.Cars()

	name := "ghost"
	if _, ok, err := cache.Update(context.Background(), "", "missing", domain.CarPatch{Name: &name}); ok || err != nil {
		t.Errorf("expected no-op update, got ok=%v err=%v", ok, err)
	}
	if ok, err := cache.Delete(context.Background(), "", "missing"); ok || err != nil {
		t.Errorf("expected no-op delete, got ok=%v err=%v", ok, err)
	}
	if !sameCars(cache.Cars(), before) || len(remote.updated)+len(remote.deleted) != 0 {
		t.Error("no-op must not touch catalog or API")
	}
}

func TestDeleteRemovesLocallyWhenOffline(t *testing.T) {
	store := kvstore.NewMemoryStore(0)
	cache := NewCache(&fakeRemote{down: true}, store, nil)
	cache.Refresh(context.Background())

	ok, err := cache.Delete(context.Background(), "", "1")
	if err != nil || !ok {
		t.Fatalf("Delete failed: ok=%v err=%v", ok, err)
	}
	if _, found := cache.Get("1"); found {
		t.Error("car still present")
	}

	reloaded := NewCache(&fakeRemote{down: true}, store, nil)
	reloaded.Refresh(context.Background())
	if _, found := reloaded.Get("1"); found {
		t.Error("delete not persisted")
	}
	if len(reloaded.Cars()) != len(domain.DefaultCatalog())-1 {
		t.Errorf("unexpected catalog size %d", len(reloaded.Cars()))
	}
}
