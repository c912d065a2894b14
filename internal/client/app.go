// Package client is the storefront application root. It owns the stores, the
// API client, the catalog cache and the state container, and exposes the
// operations the storefront pages trigger.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"xcar/internal/appstate"
	"xcar/internal/authn"
	"xcar/internal/blobstore"
	"xcar/internal/catalog"
	"xcar/internal/config"
	"xcar/internal/connectivity"
	"xcar/internal/domain"
	"xcar/internal/gateway"
	"xcar/internal/kvstore"
	"xcar/internal/logger"
	"xcar/internal/media"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNotAdmin = errors.New("admin session required")

type App struct {
	logger *zap.Logger

	KV      kvstore.Store
	Blobs   blobstore.Store
	Gateway *gateway.Client
	Monitor *connectivity.Monitor
	Catalog *catalog.Cache
	State   *appstate.Container
	Auth    *authn.Service
	Video   *media.Manager

	closers []func() error
}

// Deps lets callers supply their own stores and API client. Nil fields are
// built from the configuration.
type Deps struct {
	KV      kvstore.Store
	Blobs   blobstore.Store
	Gateway *gateway.Client
}

// New builds the application and hydrates the session, cart and selections
// from the small-value store.
func New(cfg config.ClientConfig, base *zap.Logger, deps Deps) (*App, error) {
	if base == nil {
		base = zap.NewNop()
	}
	app := &App{logger: logger.Component(base, "app")}

	app.Monitor = connectivity.NewMonitor(logger.Component(base, "connectivity"))

	app.KV = deps.KV
	if app.KV == nil {
		app.KV = app.openKV(cfg)
	}

	app.Blobs = deps.Blobs
	if app.Blobs == nil {
		blobs, err := openBlobs(cfg)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Blobs = blobs
	}

	app.Gateway = deps.Gateway
	if app.Gateway == nil {
		app.Gateway = gateway.New(cfg.APIBaseURL, gateway.Timeouts{
			Catalog: cfg.Timeouts.Catalog,
			Mutate:  cfg.Timeouts.Mutate,
			Delete:  cfg.Timeouts.Delete,
			Auth:    cfg.Timeouts.Auth,
		}, gateway.WithObserver(app.Monitor))
	}

	app.Catalog = catalog.NewCache(app.Gateway, app.KV, logger.Component(base, "catalog"))
	app.Auth = authn.NewService(app.Gateway, app.KV, logger.Component(base, "authn"))
	app.Video = media.NewManager(app.Blobs, app.KV, logger.Component(base, "media"))

	app.State = appstate.New(appstate.Load(app.KV, logger.Component(base, "appstate")))
	app.State.Subscribe(appstate.Persister(app.KV))

	return app, nil
}

// openKV opens the SQLite store under the data dir. When that fails the app
// still runs on an in-memory store for this session.
func (a *App) openKV(cfg config.ClientConfig) kvstore.Store {
	quota := cfg.KVQuota
	if quota == 0 {
		quota = kvstore.DefaultQuota
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		a.logger.Warn("Data dir unavailable, using in-memory store", zap.Error(err))
		return kvstore.NewMemoryStore(quota)
	}
	store, err := kvstore.OpenSQLite(filepath.Join(cfg.DataDir, "xcar.db"), quota, a.logger)
	if err != nil {
		a.logger.Warn("Local store unavailable, using in-memory store", zap.Error(err))
		return kvstore.NewMemoryStore(quota)
	}
	a.closers = append(a.closers, store.Close)
	return store
}

func openBlobs(cfg config.ClientConfig) (blobstore.Store, error) {
	switch cfg.Blob.Driver {
	case "", "file":
		return blobstore.NewFileStore(filepath.Join(cfg.DataDir, "blobs")), nil
	case "minio":
		store, err := blobstore.NewMinioStore(cfg.Blob.MinioEndpoint, cfg.Blob.MinioAccessKey,
			cfg.Blob.MinioSecretKey, cfg.Blob.MinioBucket, cfg.Blob.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init blob store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}

// Start refreshes the catalog and resolves the homepage video concurrently.
// Neither can fail: both degrade to local data.
func (a *App) Start(ctx context.Context) (video string, origin media.Origin) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Catalog.Refresh(gctx)
		return nil
	})
	g.Go(func() error {
		video, origin = a.Video.Current(gctx)
		return nil
	})
	_ = g.Wait()

	a.logger.Info("Storefront ready",
		zap.String("catalog_source", string(a.Catalog.Source())),
		zap.Int("cars", len(a.Catalog.Cars())),
		zap.String("video_origin", string(origin)),
		zap.Bool("offline", a.Monitor.Offline()))
	return video, origin
}

// Close releases the stores.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Login authenticates and adopts the session.
func (a *App) Login(ctx context.Context, email, password string) (domain.Session, error) {
	session, err := a.Auth.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	if err := a.State.Login(session); err != nil {
		return domain.Session{}, fmt.Errorf("save session: %w", err)
	}
	return session, nil
}

// Logout clears the session.
func (a *App) Logout() error {
	return a.State.Logout()
}

// Session returns the signed-in user, if any.
func (a *App) Session() (domain.Session, bool) {
	state := a.State.Snapshot()
	if state.User == nil {
		return domain.Session{}, false
	}
	return *state.User, true
}

// AddToCart adds one unit of a catalog car.
func (a *App) AddToCart(carID string) error {
	if _, ok := a.Catalog.Get(carID); !ok {
		return fmt.Errorf("car %q is not in the catalog", carID)
	}
	return a.State.AddToCart(carID)
}

func (a *App) admin() (string, error) {
	session, ok := a.Session()
	if !ok || !session.IsAdmin {
		return "", ErrNotAdmin
	}
	return session.Token, nil
}

// CreateCar adds a car as the signed-in admin.
func (a *App) CreateCar(ctx context.Context, in domain.CarInput) (domain.Car, error) {
	token, err := a.admin()
	if err != nil {
		return domain.Car{}, err
	}
	return a.Catalog.Create(ctx, token, in)
}

// UpdateCar patches a car as the signed-in admin.
func (a *App) UpdateCar(ctx context.Context, id string, patch domain.CarPatch) (domain.Car, bool, error) {
	token, err := a.admin()
	if err != nil {
		return domain.Car{}, false, err
	}
	return a.Catalog.Update(ctx, token, id, patch)
}

// DeleteCar removes a car as the signed-in admin.
func (a *App) DeleteCar(ctx context.Context, id string) (bool, error) {
	token, err := a.admin()
	if err != nil {
		return false, err
	}
	return a.Catalog.Delete(ctx, token, id)
}
