package server

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_OpenError(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })

	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driver)
		return nil, errors.New("boom")
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	app, err := NewApp(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, app)
	assert.Contains(t, err.Error(), "db open error")
}

func TestServe_FailureCancels(t *testing.T) {
	app := &App{logger: logging.NewText(io.Discard, "error")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.serve(ctx, cancel, "http", func(context.Context) error { return errors.New("listen failed") })

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context not cancelled after server failure")
	}
}

func TestServe_CleanExitKeepsRunning(t *testing.T) {
	app := &App{logger: logging.NewText(io.Discard, "error")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.serve(ctx, cancel, "grpc", func(context.Context) error { return nil })
	assert.NoError(t, ctx.Err())
}
