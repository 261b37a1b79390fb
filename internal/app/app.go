// Package app wires the solver service: storage, handlers, middleware and
// the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/ballsort/internal/config"
	"github.com/vancomm/ballsort/internal/database"
	"github.com/vancomm/ballsort/internal/middleware"
	"github.com/vancomm/ballsort/internal/repository"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	log    logrus.FieldLogger
	config config.Config
	router *http.ServeMux
	store  repository.Store
	db     *pgxpool.Pool
}

// New returns an App serving from store. A nil store is resolved by
// [App.Start]: Postgres when configured, memory otherwise.
func New(log logrus.FieldLogger, c config.Config, store repository.Store) *App {
	return &App{
		log:    log,
		config: c,
		router: http.NewServeMux(),
		store:  store,
	}
}

func (a *App) openStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	if !a.config.Postgres.Enabled() {
		a.log.Warn("postgres is not configured, solutions are kept in memory")
		a.store = repository.NewMemory()
		return nil
	}

	db, migrator, err := database.ConnectAndMigrate(ctx, a.config.Postgres)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	if version, dirty, err := migrator.Version(); err == nil {
		a.log.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("database migrated")
	}
	a.db = db
	a.store = repository.New(db)
	return nil
}

// Handler builds the routed and wrapped handler. The store must be set.
func (a *App) Handler() http.Handler {
	a.loadRoutes()
	return middleware.Wrap(
		a.router,
		middleware.Logging(a.log),
		middleware.Cors(a.config.AllowOrigin),
		middleware.RequestID(),
	)
}

// Start serves on the configured address until ctx is done.
func (a *App) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", a.config.Addr)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", a.config.Addr, err)
	}
	return a.Serve(ctx, l)
}

// Serve is [App.Start] on an existing listener, which it closes.
func (a *App) Serve(ctx context.Context, l net.Listener) error {
	if err := a.openStore(ctx); err != nil {
		l.Close()
		return err
	}
	if a.db != nil {
		defer a.db.Close()
	}

	server := &http.Server{
		Handler:     a.Handler(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", l.Addr())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.Serve(l)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to listen and serve: %w", err)
	})
	g.Go(func() error {
		<-gCtx.Done()
		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sCtx)
	})
	return g.Wait()
}
