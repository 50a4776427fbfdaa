// Package httpserver serves the drive: server-rendered pages, a JSON API that
// mirrors every operation, blob view/download/preview routes and generated
// avatars.
package httpserver

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/platform"
	"github.com/dmitrijs2005/gophdrive/internal/server/services"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// multipart framing on top of the file itself
const uploadOverhead = 1 << 20

type Server struct {
	address       string
	engine        *gin.Engine
	users         *services.UserService
	files         *services.FileService
	storage       *platform.Storage
	bucket        string
	revalidator   *Revalidator
	pages         *template.Template
	maxUploadSize int64
	logger        logging.Logger
}

func New(cfg *config.Config, users *services.UserService, files *services.FileService, storage *platform.Storage,
	revalidator *Revalidator, logger logging.Logger) (*Server, error) {

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		address:       cfg.HTTPAddr,
		users:         users,
		files:         files,
		storage:       storage,
		bucket:        cfg.S3Bucket,
		revalidator:   revalidator,
		pages:         pages,
		maxUploadSize: cfg.MaxUploadSize,
		logger:        logger.With("module", "http_server"),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), corsMiddleware(cfg.CORSOrigins), limitBody(cfg.MaxUploadSize+uploadOverhead))
	s.routes(r)
	s.engine = r

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(r *gin.Engine) {
	// pages
	r.GET("/sign-in", s.signInPage)
	r.POST("/sign-in", s.signInSubmit)
	r.GET("/sign-up", s.signUpPage)
	r.POST("/sign-up", s.signUpSubmit)
	r.POST("/verify", s.verifySubmit)
	r.POST("/sign-out", s.signOutSubmit)
	r.GET("/", s.dashboardPage)
	for _, route := range listingRoutes() {
		r.GET("/"+route, s.listingPage)
	}
	r.POST("/files/upload", s.uploadSubmit)
	r.POST("/files/:id/rename", s.renameSubmit)
	r.POST("/files/:id/share", s.shareSubmit)
	r.POST("/files/:id/delete", s.deleteSubmit)

	// blobs and avatars
	r.GET("/storage/buckets/:bucket/files/:id/view", s.viewFile)
	r.GET("/storage/buckets/:bucket/files/:id/download", s.downloadFile)
	r.GET("/storage/buckets/:bucket/files/:id/preview", s.previewFile)
	r.GET("/avatars/initials", s.initialsAvatar)

	api := r.Group("/api")
	{
		api.POST("/auth/sign-up", s.apiSignUp)
		api.POST("/auth/sign-in", s.apiSignIn)
		api.POST("/auth/verify", s.apiVerify)
		api.POST("/auth/sign-out", s.apiSignOut)
		api.GET("/me", s.apiMe)

		api.GET("/files", s.apiListFiles)
		api.POST("/files", s.apiUploadFile)
		api.PATCH("/files/:id", s.apiRenameFile)
		api.PUT("/files/:id/users", s.apiShareFile)
		api.DELETE("/files/:id", s.apiDeleteFile)
		api.GET("/usage", s.apiUsage)
	}
}

// currentUser resolves the signed-in user, nil when there is none.
func (s *Server) currentUser(c *gin.Context) (*models.User, error) {
	return s.users.GetCurrentUser(c.Request.Context(), ginCookies{c})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
