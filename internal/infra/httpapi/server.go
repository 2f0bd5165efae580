// Package httpapi exposes sync, progress metrics and account management over
// HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"classroom_sync/internal/app"
	"classroom_sync/internal/domain/user"
)

// IdentityLookup resolves the verified account behind a provider access token.
type IdentityLookup func(ctx context.Context, accessToken string) (email, name string, err error)

// Deps are the services the API serves.
type Deps struct {
	Sync        *app.SyncService
	Progress    *app.ProgressService
	Invitations *app.InvitationService
	Accounts    *app.AccountService
	Identity    IdentityLookup
}

type Options struct {
	JWTSecret   string
	FrontendURL string
	DevAuth     bool
	SyncTimeout time.Duration
}

type Server struct {
	deps   Deps
	opts   Options
	tokens tokenIssuer
	router *gin.Engine
	logger *logrus.Entry
}

func NewServer(deps Deps, opts Options, logger *logrus.Entry) *Server {
	s := &Server{
		deps:   deps,
		opts:   opts,
		tokens: tokenIssuer{secret: []byte(opts.JWTSecret), now: time.Now},
		logger: logger.WithField("component", "http"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())
	if s.opts.FrontendURL != "" {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{s.opts.FrontendURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.health)
	r.POST("/auth/login", s.login)

	authed := r.Group("/")
	authed.Use(s.authMiddleware())
	authed.GET("/auth/me", s.me)

	api := authed.Group("/api")
	api.POST("/sync", requireRole(user.RoleTeacher, user.RoleCoordinator), s.sync)
	api.GET("/courses", s.listCourses)
	api.GET("/students", s.listStudents)
	api.GET("/progress/:email", s.studentProgress)

	invitations := api.Group("/invitations", requireRole(user.RoleCoordinator))
	invitations.GET("", s.listInvitations)
	invitations.POST("", s.createInvitation)
	invitations.DELETE("/:email", s.deleteInvitation)

	if s.opts.DevAuth {
		r.POST("/dev/login", s.devLogin)
		authed.POST("/dev/role", s.devRole)
		authed.GET("/dev/me", s.devMe)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request handled")
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP server listening on %s", addr)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down HTTP server...")
	return srv.Shutdown(shutdownCtx)
}
