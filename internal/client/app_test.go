package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"xcar/internal/catalog"
	"xcar/internal/config"
	"xcar/internal/domain"
	"xcar/internal/media"
)

func testConfig(t *testing.T, apiURL string) config.ClientConfig {
	t.Helper()
	return config.ClientConfig{
		APIBaseURL: apiURL,
		DataDir:    t.TempDir(),
		Timeouts: config.TimeoutConfig{
			Catalog: 500 * time.Millisecond,
			Mutate:  500 * time.Millisecond,
			Delete:  500 * time.Millisecond,
			Auth:    500 * time.Millisecond,
		},
		Blob: config.BlobConfig{Driver: "file"},
	}
}

func deadAPI(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func openApp(t *testing.T, cfg config.ClientConfig) *App {
	t.Helper()
	app, err := New(cfg, nil, Deps{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestOfflineSessionSurvivesReload(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, deadAPI(t))

	app := openApp(t, cfg)
	video, origin := app.Start(ctx)
	if video != media.DefaultVideoURL || origin != media.OriginDefault {
		t.Errorf("expected default video, got %q (%s)", video, origin)
	}
	if !app.Monitor.Offline() {
		t.Error("expected offline after failed refresh")
	}
	if app.Catalog.Source() != catalog.SourceSeed {
		t.Errorf("expected seed catalog, got %s", app.Catalog.Source())
	}

	if _, err := app.CreateCar(ctx, domain.CarInput{Name: "Nevera", Brand: "RIMAC", Price: 2400000}); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	session, err := app.Login(ctx, domain.AdminEmail, domain.AdminPassword)
	if err != nil || !session.IsAdmin {
		t.Fatalf("offline admin login failed: %+v %v", session, err)
	}
	car, err := app.CreateCar(ctx, domain.CarInput{Name: "Nevera", Brand: "RIMAC", Price: 2400000, Category: domain.CategoryHypercar})
	if err != nil {
		t.Fatalf("CreateCar failed: %v", err)
	}
	if err := app.AddToCart(car.ID); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if err := app.State.ToggleFavorite(car.ID); err != nil {
		t.Fatalf("ToggleFavorite failed: %v", err)
	}
	if err := app.Video.SetSource(ctx, "https://cdn.example.com/launch.mp4"); err != nil {
		t.Fatalf("SetSource failed: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded := openApp(t, cfg)
	video, origin = reloaded.Start(ctx)
	if video != "https://cdn.example.com/launch.mp4" || origin != media.OriginURL {
		t.Errorf("video not restored: %q (%s)", video, origin)
	}
	if _, ok := reloaded.Catalog.Get(car.ID); !ok {
		t.Error("offline car lost on reload")
	}
	if got, ok := reloaded.Session(); !ok || !got.IsAdmin {
		t.Error("session lost on reload")
	}
	state := reloaded.State.Snapshot()
	if len(state.Cart) != 1 || state.Cart[0].CarID != car.ID || len(state.Favorites) != 1 {
		t.Errorf("selections lost on reload: %+v", state)
	}

	if err := reloaded.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, ok := reloaded.Session(); ok {
		t.Error("session still present after logout")
	}
}

func TestOnlineRefreshUsesRemoteCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"m1","name":"Valhalla","brand":"ASTON MARTIN","price":800000,"category":"Hybrid"}]`))
	}))
	defer server.Close()

	app := openApp(t, testConfig(t, server.URL))
	app.Start(context.Background())

	if app.Monitor.Offline() {
		t.Error("expected online")
	}
	cars := app.Catalog.Cars()
	if len(cars) != 1 || cars[0].ID != "m1" {
		t.Fatalf("unexpected catalog %+v", cars)
	}
	if err := app.AddToCart("m1"); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if err := app.AddToCart("unknown"); err == nil {
		t.Error("expected error for a car outside the catalog")
	}
}

func TestUnknownBlobDriver(t *testing.T) {
	cfg := testConfig(t, deadAPI(t))
	cfg.Blob.Driver = "floppy"
	if _, err := New(cfg, nil, Deps{}); err == nil {
		t.Fatal("expected error for unknown blob driver")
	}
}
