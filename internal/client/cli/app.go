package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
	"github.com/dmitrijs2005/gophdrive/internal/client/config"
	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/client/search"
	"github.com/dmitrijs2005/gophdrive/internal/client/services"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

type App struct {
	config      *config.Config
	db          *sql.DB
	authService services.AuthService
	fileService services.FileService
	logger      logging.Logger
	reader      *bufio.Reader

	user *models.User
	// last is the most recent listing; commands accept its 1-based numbers.
	last []*models.File

	// out is shared with the debouncer's timer goroutine.
	outMu sync.Mutex
	out   io.Writer

	searcher *search.Debouncer
	// results and query belong to the last delivered search.
	results  []*models.File
	query    string
	location string
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()
	logger := logging.NewText(os.Stderr, c.LogLevel)

	db, err := client.InitDatabase(ctx, c.StateDB)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient := client.NewHTTPClient(c.ServerURL, &http.Client{Timeout: 5 * time.Minute})

	a := newApp(c,
		services.NewAuthService(apiClient, db, logger),
		services.NewFileService(apiClient, logger),
		logger, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, as services.AuthService, fs services.FileService, logger logging.Logger, in io.Reader, out io.Writer) *App {
	a := &App{
		config:      c,
		authService: as,
		fileService: fs,
		logger:      logger,
		reader:      bufio.NewReader(in),
		out:         out,
		location:    "/",
	}
	a.searcher = search.New(c.SearchDebounce, fs.Search, a.showResults)
	return a
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

func (a *App) getStatus() string {
	a.outMu.Lock()
	s := a.location
	a.outMu.Unlock()
	if a.user != nil {
		s = a.user.Email + " " + s
	}
	return fmt.Sprintf("(%s)", s)
}

// report prints a command failure for the user.
func (a *App) report(err error) error {
	if err != nil {
		a.printf("Error: %v\n", err)
	}
	return err
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		a.searcher.Close()
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	if err := a.authService.Ping(ctx); err != nil {
		a.logger.Warn(ctx, "server is not reachable", "url", a.config.ServerURL, "error", err)
	}

	user, err := a.authService.Restore(ctx)
	if err != nil {
		a.logger.Warn(ctx, "could not restore session", "error", err)
	}
	a.user = user

	a.printf("Welcome to GophDrive CLI (type 'help' for commands)\n")
	if a.user != nil {
		a.printf("Signed in as %s <%s>\n", a.user.FullName, a.user.Email)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}
