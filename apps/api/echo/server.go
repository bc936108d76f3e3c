package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/dashboard"
	"github.com/trezcool/milestone/core/evaluation"
	"github.com/trezcool/milestone/core/skill"
	"github.com/trezcool/milestone/core/user"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool

		UserSvc       user.ServiceInterface
		SkillSvc      skill.ServiceInterface
		ChildSvc      child.ServiceInterface
		AssessmentSvc assessment.ServiceInterface
		EvaluationSvc evaluation.ServiceInterface
		DashboardSvc  dashboard.ServiceInterface
		ConsentForms  child.Renderer
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: newRequestID}))
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	g := s.app.Group("/api")
	g.GET("/health", health)

	jwt := middleware.JWTWithConfig(jwtConfig(conf))

	registerUserAPI(g, jwt, conf, s.deps.UserSvc, s.deps.Validate)
	registerSkillAPI(g, jwt, s.deps.SkillSvc, s.deps.Validate)
	registerChildAPI(g, jwt, s.deps.ChildSvc, s.deps.AssessmentSvc, s.deps.ConsentForms, s.deps.Validate)
	registerAssessmentAPI(g, jwt, s.deps.AssessmentSvc, s.deps.EvaluationSvc, conf.Center, s.deps.Validate)
	registerDashboardAPI(g, jwt, s.deps.DashboardSvc)
}

// Start starts listening. Errors are sent on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the app to stop gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func newRequestID() string {
	return uuid.New().String()
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
