// Package httpserver exposes the login, logout and identity endpoints over
// HTTP using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/schoolauth/internal/logging"
	"github.com/dmitrijs2005/schoolauth/internal/server/auth"
	"github.com/dmitrijs2005/schoolauth/internal/server/services"
	"github.com/dmitrijs2005/schoolauth/internal/server/throttle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// AuthAPI is the part of services.AuthService the handlers depend on.
type AuthAPI interface {
	Login(ctx context.Context, userName, password string) (*services.Session, error)
	Identify(ctx context.Context, token string) (*auth.Claims, error)
	TokenTTL() time.Duration
}

// CookieOptions controls the attributes of the access_token cookie.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// Options configures an HTTPServer. Limiter may be nil to disable login
// throttling; an empty AllowedOrigins disables CORS handling.
type Options struct {
	Address        string
	Cookie         CookieOptions
	AllowedOrigins []string
	Limiter        throttle.Limiter
}

type HTTPServer struct {
	address string
	auth    AuthAPI
	cookie  CookieOptions
	limiter throttle.Limiter
	logger  logging.Logger
	engine  *gin.Engine
}

func NewHTTPServer(opts Options, l logging.Logger, a AuthAPI) *HTTPServer {
	s := &HTTPServer{
		address: opts.Address,
		auth:    a,
		cookie:  opts.Cookie,
		limiter: opts.Limiter,
		logger:  l.With("module", "http_server"),
	}
	s.engine = s.newEngine(opts.AllowedOrigins)
	return s
}

func (s *HTTPServer) newEngine(origins []string) *gin.Engine {
	r := gin.New()
	// client address comes from the socket, not from X-Forwarded-For
	_ = r.SetTrustedProxies(nil)

	r.Use(requestID())
	r.Use(s.requestLogger())
	r.Use(gin.CustomRecovery(s.recoverPanic))

	if len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.handleHealth)
	r.POST("/login/:name/:password/", s.loginThrottle(), s.handleLogin)
	r.POST("/logout/", s.handleLogout)
	r.GET("/me/", s.handleMe)

	return r
}

// Handler returns the routed engine.
func (s *HTTPServer) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully: new
// connections are refused and in-flight requests run to completion.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
