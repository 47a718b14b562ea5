// Package server wires ClipVault together: database, object store, fetch
// adapter, upload pipeline, reconciler and the HTTP boundary. It owns
// startup and graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/dmitrijs2005/clipvault/internal/server/config"
	"github.com/dmitrijs2005/clipvault/internal/server/fetch"
	"github.com/dmitrijs2005/clipvault/internal/server/httpapi"
	"github.com/dmitrijs2005/clipvault/internal/server/ownerlock"
	"github.com/dmitrijs2005/clipvault/internal/server/pipeline"
	"github.com/dmitrijs2005/clipvault/internal/server/quota"
	"github.com/dmitrijs2005/clipvault/internal/server/reconciler"
	"github.com/dmitrijs2005/clipvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipvault/internal/server/services"
	"github.com/dmitrijs2005/clipvault/internal/server/storage"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	reconciler *reconciler.Reconciler
	http       *httpapi.Server
}

// newStore is a seam for tests.
var newStore = func(ctx context.Context, c *config.Config, l logging.Logger) (storage.ObjectStore, error) {
	if c.ObjectStore == "memory" {
		return storage.NewMemoryStore(c.PublicBaseURL), nil
	}
	return storage.NewS3Store(ctx, storage.S3Options{
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Region:        c.S3Region,
		BaseEndpoint:  c.S3BaseEndpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.PublicBaseURL,
	}, l)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	db, err := repomanager.Open(ctx, rm, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := newStore(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	fetcher := fetch.NewAdapter(fetch.Options{
		FetchTool:     c.FetchTool,
		ProbeTool:     c.ProbeTool,
		TranscodeTool: c.TranscodeTool,
		TempDir:       c.TempDir,
		MaxHeight:     c.MaxHeight,
		AllowedHosts:  c.AllowedHosts,
		Timeout:       c.FetchTimeout,
	}, fetch.ExecRunner{}, logger.With("module", "fetch"))

	tracker := quota.NewTracker(db, rm, c.DefaultUploadLimit, logger.With("module", "quota"))

	pipe := pipeline.New(db, rm, tracker, fetcher, store, &ownerlock.Set{}, pipeline.Options{
		KeyPrefix:     c.KeyPrefix,
		Format:        c.TargetFormat,
		SubmitTimeout: c.SubmitTimeout,
		StoreTimeout:  c.StoreTimeout,
		FetchRetries:  uint(c.FetchRetries),
		PutRetries:    uint(c.PutRetries),
		RetryBackoff:  c.RetryBackoff,
	}, logger.With("module", "pipeline"))

	rec := reconciler.New(db, rm, store, reconciler.Options{
		KeyPrefix:    c.KeyPrefix,
		Retention:    c.Retention,
		OrphanSweep:  c.OrphanSweep,
		OrphanGrace:  c.OrphanGrace,
		RunAt:        c.ReconcileAt,
		Location:     c.Location(),
		StoreTimeout: c.StoreTimeout,
	}, logger.With("module", "reconciler"))

	files := services.NewFileService(db, rm, store, rec, c.Retention, logger.With("module", "files"))
	admin := services.NewAdminService(tracker, rec)

	srv := httpapi.NewServer(c.EndpointAddrHTTP, logger, pipe, files, admin,
		httpapi.Roles{Admin: c.AdminRole, Uploader: c.UploaderRole})

	return &App{config: c, logger: logger, db: db, reconciler: rec, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a signal arrives, then stops the
// reconciler, drains the HTTP server and closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	if err := app.reconciler.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.http.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		app.reconciler.Stop()
		return nil
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
