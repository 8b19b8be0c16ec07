// Package app wires configuration, storage and the service clients into a
// runnable Murmurations Tools server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/auth"
	"github.com/murmurations/go-murmurations/internal/config"
	"github.com/murmurations/go-murmurations/internal/httpapi"
	"github.com/murmurations/go-murmurations/internal/library/loader"
	"github.com/murmurations/go-murmurations/internal/render"
	"github.com/murmurations/go-murmurations/internal/store/memory"
	"github.com/murmurations/go-murmurations/internal/store/sqlite"
	"github.com/murmurations/go-murmurations/pkg/dataproxy"
	"github.com/murmurations/go-murmurations/pkg/index"
	"github.com/murmurations/go-murmurations/pkg/library"
	"github.com/murmurations/go-murmurations/pkg/schema"
	"github.com/murmurations/go-murmurations/pkg/store"
)

// DefaultShutdownGrace bounds how long Serve waits for in-flight requests.
const DefaultShutdownGrace = 5 * time.Second

// Option customises an App.
type Option func(*App)

// WithLogger routes every component's logs to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.Logger = logger
		}
	}
}

// WithStore replaces the configured backend.
func WithStore(st store.Store) Option {
	return func(a *App) {
		a.Store = st
	}
}

// WithSchemaFS resolves schemas from {name}.json files before the Library.
func WithSchemaFS(files fs.FS) Option {
	return func(a *App) {
		a.schemaFS = files
	}
}

// WithShutdownGrace overrides DefaultShutdownGrace.
func WithShutdownGrace(grace time.Duration) Option {
	return func(a *App) {
		if grace > 0 {
			a.grace = grace
		}
	}
}

// App owns the long-lived collaborators of one process.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Store     store.Store
	Merger    *schema.Merger
	Catalog   *library.Catalog
	Index     *index.Client
	DataProxy *dataproxy.Client

	schemaFS fs.FS
	grace    time.Duration
}

// New builds an App from cfg. The store is opened unless WithStore supplied
// one; Close releases it either way.
func New(ctx context.Context, cfg config.Config, options ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: zap.NewNop(),
		grace:  DefaultShutdownGrace,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}

	if a.Store == nil {
		st, err := OpenStore(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.Store = st
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a.Merger = NewMerger(cfg, a.schemaFS, a.Logger)
	a.Catalog = library.NewCatalog(
		library.WithBaseURL(cfg.LibraryURL),
		library.WithHTTPClient(httpClient),
		library.WithRequestTimeout(cfg.HTTPTimeout),
	)
	a.Index = index.New(cfg.IndexURL,
		index.WithHTTPClient(httpClient),
		index.WithTimeout(cfg.HTTPTimeout),
		index.WithLogger(a.Logger.Named("index")),
	)
	a.DataProxy = dataproxy.New(cfg.DataProxyURL, httpClient, cfg.HTTPTimeout)
	return a, nil
}

// NewMerger builds a schema merger over the Library at cfg.LibraryURL. A
// non-nil files is consulted first.
func NewMerger(cfg config.Config, files fs.FS, logger *zap.Logger) *schema.Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	options := []library.LoaderOption{
		library.WithBaseURL(cfg.LibraryURL),
		library.WithRequestTimeout(cfg.HTTPTimeout),
	}
	if files != nil {
		options = append(options, library.WithFileSystem(files))
	}
	l := loader.New(library.NewLoaderOptions(options...))
	return schema.NewMerger(library.NewFetcher(l), schema.WithLogger(logger.Named("merger")))
}

// OpenStore opens the backend named by the storage config.
func OpenStore(ctx context.Context, cfg config.Storage) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.New(), nil
	case config.DriverSQLite:
		st, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Driver)
	}
}

// Handler builds the HTTP API over the App's collaborators.
func (a *App) Handler() (http.Handler, error) {
	pages, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("load page templates: %w", err)
	}
	server, err := httpapi.New(httpapi.Dependencies{
		Config:    a.Config,
		Store:     a.Store,
		Auth:      auth.New(a.Store, a.Store, auth.WithLogger(a.Logger.Named("auth"))),
		Merger:    a.Merger,
		Catalog:   a.Catalog,
		Index:     a.Index,
		DataProxy: a.DataProxy,
		Pages:     pages,
		Logger:    a.Logger.Named("http"),
	})
	if err != nil {
		return nil, err
	}
	return server.Handler(), nil
}

// Serve listens on cfg.Addr until ctx is done, then drains in-flight
// requests for up to the shutdown grace period.
func (a *App) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.Config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.Addr, err)
	}
	return a.ServeListener(ctx, listener)
}

// ServeListener is Serve over an existing listener.
func (a *App) ServeListener(ctx context.Context, listener net.Listener) error {
	handler, err := a.Handler()
	if err != nil {
		_ = listener.Close()
		return err
	}
	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()
	a.Logger.Info("listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("env", a.Config.Env),
		zap.String("storage", a.Config.Storage.Driver))

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.grace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

// Close releases the store.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
