package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/etarip26/EduConnect/core"
	"github.com/etarip26/EduConnect/core/admin"
	"github.com/etarip26/EduConnect/core/announcement"
	"github.com/etarip26/EduConnect/core/chat"
	"github.com/etarip26/EduConnect/core/demo"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/review"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
	"github.com/etarip26/EduConnect/services/metrics"
)

type (
	// HealthCheck is a dependency probed by /api/health/ready.
	HealthCheck struct {
		Name string
		Ping func(ctx context.Context) error
	}

	Deps struct {
		Validate   *validator.Validate
		Translator ut.Translator
		Sessions   core.SessionStore
		Metrics    *metrics.Metrics
		Checks     []HealthCheck

		UserSvc         user.ServiceInterface
		ProfileSvc      *profile.Service
		TuitionSvc      *tuition.Service
		MatchSvc        *match.Service
		DemoSvc         *demo.Service
		ChatSvc         *chat.Service
		NotificationSvc *notification.Service
		ReviewSvc       *review.Service
		AnnouncementSvc *announcement.Service
		AdminSvc        *admin.Service
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		deps     *Deps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *Deps) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.auth = newAuthenticator(conf, deps.UserSvc, deps.Sessions)
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.deps.Translator, s.signalShutdown)
	s.app.Validator = &structValidator{validate: s.deps.Validate}

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.conf.Server.AllowOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if !s.conf.TestMode {
		s.app.Use(requestLogger(s.logger))
	}
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", s.home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	api := s.app.Group("/api")
	jwt := s.auth.middleware()

	registerHealthAPI(api, s.deps.Checks)
	registerUserAPI(api, jwt, s.auth, s.deps.UserSvc, s.deps.Validate, s.logger)
	registerProfileAPI(api, jwt, s.deps.ProfileSvc)
	registerSearchAPI(api, jwt, s.deps.ProfileSvc, s.deps.TuitionSvc)
	registerTuitionAPI(api, jwt, s.deps.TuitionSvc)
	registerMatchAPI(api, jwt, s.deps.MatchSvc)
	registerDemoAPI(api, jwt, s.deps.DemoSvc)
	registerChatAPI(api, jwt, s.auth, s.deps.ChatSvc, s.deps.Metrics, s.logger)
	registerNotificationAPI(api, jwt, s.deps.NotificationSvc)
	registerReviewAPI(api, jwt, s.deps.ReviewSvc)
	registerAnnouncementAPI(api, jwt, s.deps.AnnouncementSvc)
	registerAdminAPI(api, jwt, s.deps.AdminSvc)
}

// Start listens on Config.Server.Host until Shutdown or Close. Listener failures are sent on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
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
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}

type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func requestLogger(logger core.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(ctx echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"user_agent": v.UserAgent,
			}
			if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
				logger.Info("request", fields, usr)
			} else {
				logger.Info("request", fields)
			}
			return nil
		},
	})
}

func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			code := ctx.Response().Status
			if err != nil {
				var herr *echo.HTTPError
				if errors.As(err, &herr) {
					code = herr.Code
				} else if !ctx.Response().Committed {
					code = statusOf(err)
				}
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, route, code, time.Since(start))
			return err
		}
	}
}
