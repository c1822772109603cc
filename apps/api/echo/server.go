package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/dig"

	"github.com/tutorcraft/tutorcraft/core"
	"github.com/tutorcraft/tutorcraft/core/resource"
	"github.com/tutorcraft/tutorcraft/core/search"
	"github.com/tutorcraft/tutorcraft/core/user"
)

type (
	// Deps are the collaborators of the API handlers.
	Deps struct {
		dig.In

		Logger      core.Logger
		UserSvc     user.Service
		ResourceSvc resource.Service
		Store       core.FileStore
		Recent      *search.RecentStore
		Validate    *validator.Validate
		Translator  ut.Translator
	}

	Server struct {
		*http.Server
		app      *echo.Echo
		conf     *core.Config
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(conf *core.Config, deps Deps) (*Server, error) {
	s := &Server{
		app:      echo.New(),
		conf:     conf,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.Server = &http.Server{Addr: conf.Server.Address, Handler: s.app}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err := s.setup(deps); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup(deps Deps) error {
	debug := s.conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	renderer, err := newTemplateRenderer()
	if err != nil {
		return err
	}
	s.app.Renderer = renderer
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.SignalShutdown)
	s.app.Debug = debug
	s.app.HideBanner = true

	s.app.GET("/", s.home)

	auth := NewAuth(s.conf)
	jwt := middleware.JWTWithConfig(auth.JWTConfig())
	api := s.app.Group("/api")

	registerAccountAPI(api, jwt, auth, deps.UserSvc, deps.Validate, deps.Logger)
	registerUserAPI(api, jwt, deps.UserSvc, deps.Validate, deps.Translator)
	registerResourceAPI(api, jwt, deps, s.conf.Storage.MaxUploadSize)
	registerPages(s.app, api, s.conf.AppName)
	registerFileServer(s.app, deps.Store)
	return nil
}

// Start listens until the server is shut down; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

// SignalShutdown asks the process to shut the server down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Stop(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.Shutdown(ctx)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
