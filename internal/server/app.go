// Package server wires the drive together: database and migrations, blob
// storage, mail delivery, the platform layer, services, the HTTP server and
// the gRPC health server. It handles graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/backend"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/httpserver"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"

	gs "github.com/dmitrijs2005/gophdrive/internal/server/grpc"
)

var sqlOpen = sql.Open

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpserver.Server
	health *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := sqlOpen("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	storage, err := platform.NewS3Storage(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	var mailer platform.Mailer
	if c.SMTPAddr != "" {
		mailer = platform.NewSMTPMailer(c.SMTPAddr, c.SMTPUser, c.SMTPPassword, c.SMTPFrom)
	} else {
		logger.Warn(ctx, "SMTP not configured, passcodes are written to the log")
		mailer = platform.NewLogMailer(logger)
	}

	urls := platform.URLs{Endpoint: c.PublicEndpoint, Bucket: c.S3Bucket, Project: c.ProjectID}
	factory := backend.NewFactory(
		platform.NewAccountService(db, rm, mailer, c, logger),
		platform.NewDatabases(rm.Documents(db)),
		storage,
		platform.Avatars{Endpoint: c.PublicEndpoint},
		urls,
		c.CookieAttempts,
		logger,
	)

	revalidator := httpserver.NewRevalidator()
	users := services.NewUserService(factory, c, logger)
	files := services.NewFileService(factory, users, revalidator, urls, c, logger)

	hs, err := httpserver.New(c, users, files, storage, revalidator, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("http server init error: %w", err)
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   hs,
		health: gs.NewHealthServer(c.GRPCAddr, db, gs.DefaultCheckInterval, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve runs one server; a failure stops the whole app.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "grpc", app.health.Run)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
