// Package echoapi is a development LMS API serving the endpoints the client consumes.
package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/user"
	emailsvc "github.com/aliqadomi777/front-end-lms/services/email"
	logsvc "github.com/aliqadomi777/front-end-lms/services/logger"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Config         *core.Config
		Logger         core.Logger
		Accounts       *Accounts
		Catalog        *Catalog
		Email          core.EmailService
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

// NewServer wires the API. signalShutdown is called when a handler fails with a core shutdown error.
func NewServer(opts *Options, signalShutdown func()) Server {
	if opts.Accounts == nil {
		opts.Accounts = NewAccounts(0)
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = logsvc.NewZapLoggerFrom(zap.NewNop())
	}
	if opts.Email == nil {
		opts.Email = emailsvc.NewConsoleService(opts.Config, opts.Logger)
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup(signalShutdown)
	return s
}

func (s *server) setup(signalShutdown func()) {
	conf := s.opts.Config

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	s.app.GET("/", home)

	auth := newAuthenticator(conf)
	validate, translator := user.NewValidator()
	api := s.app.Group("/api")
	jwt := auth.middleware()

	registerUserAPI(api, jwt, &userApi{
		accts:      s.opts.Accounts,
		auth:       auth,
		resets:     newResetTokens(conf.DevAPI.SecretKey, conf.DevAPI.PasswordResetTimeout),
		email:      s.opts.Email,
		validate:   validate,
		translator: translator,
		appName:    conf.AppName,
		callback:   conf.DevAPI.OAuthRedirectURL,
		resetURL:   conf.DevAPI.ResetPasswordURL,
	})
	registerCourseAPI(api, jwt, &courseApi{
		accts:   s.opts.Accounts,
		catalog: s.opts.Catalog,
	})
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the LMS dev API!")
}
