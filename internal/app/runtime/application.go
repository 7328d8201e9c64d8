// Package runtime assembles the gateway process: configuration, logging, the
// ledger client, the submission journal and the HTTP server.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	app "github.com/R3E-Network/xrpl_service_layer/internal/app"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/httpapi"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage/memory"
	"github.com/R3E-Network/xrpl_service_layer/internal/app/storage/postgres"
	"github.com/R3E-Network/xrpl_service_layer/internal/config"
	"github.com/R3E-Network/xrpl_service_layer/internal/xrpl"
	"github.com/R3E-Network/xrpl_service_layer/pkg/logger"
)

// Application is the running gateway process.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *http.Server
	ledger     *xrpl.Client
	db         *postgres.Store
}

// NewApplication builds the process from cfg without opening listeners.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Component: "gateway"})

	ledger, err := xrpl.NewClient(xrpl.Config{
		URL:          cfg.XRPLNode,
		Timeout:      cfg.LedgerTimeout,
		PollInterval: cfg.LedgerPollInterval,
		Logger:       log.Named("xrpl"),
	})
	if err != nil {
		return nil, fmt.Errorf("configure ledger client: %w", err)
	}

	store, db, err := buildStore(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure store: %w", err)
	}

	application, err := app.New(cfg, app.Dependencies{Ledger: ledger, Store: store}, log)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           httpapi.NewHandler(application, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
		// Submissions wait for validation, which can take several ledgers.
		WriteTimeout: cfg.LedgerTimeout + time.Minute,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: srv,
		ledger:     ledger,
		db:         db,
	}, nil
}

// App exposes the composed services.
func (a *Application) App() *app.Application { return a.app }

// Handler returns the HTTP handler served by Run.
func (a *Application) Handler() http.Handler { return a.httpServer.Handler }

// Run starts the lifecycle services and serves HTTP until ctx is cancelled or
// the listener fails. Call Shutdown afterwards in both cases.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown drains HTTP, stops services and closes the journal.
func (a *Application) Shutdown(ctx context.Context) error {
	grace := a.cfg.ShutdownGracePeriod
	if grace <= 0 {
		grace = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return errors.Join(errs...)
}

// buildStore opens Postgres when DATABASE_URL is set and falls back to the
// in-memory journal otherwise.
func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.SubmissionStore, *postgres.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("DATABASE_URL not set; journaling submissions in memory")
		return memory.New(memory.DefaultCapacity), nil, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := postgres.Open(openCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, db, nil
}
