package testutil

import (
	"net/http/httptest"
	"net/mail"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	echoapi "github.com/aliqadomi777/front-end-lms/apps/devapi/echo"
	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/user"
	emailsvc "github.com/aliqadomi777/front-end-lms/services/email"
	logsvc "github.com/aliqadomi777/front-end-lms/services/logger"
)

const (
	// OAuthCallback is the client callback the test dev API redirects to.
	OAuthCallback = "http://client.test/auth/google/callback"
	// ResetPasswordURL is the client page the test dev API's reset links point at.
	ResetPasswordURL = "http://client.test/auth/reset-password"
)

// Config returns a TEST configuration that does not read the environment.
func Config() *core.Config {
	return &core.Config{
		Env:      "TEST",
		TestMode: true,
		AppName:  "LMS",
		Build:    "test",
		LogLevel: "debug",
		API: core.APIConfig{
			LoginPath:      "/users/login",
			ProfilePath:    "/users/profile",
			MePath:         "/users/me",
			RequestTimeout: 5 * time.Second,
		},
		Storage: core.StorageConfig{Kind: core.StorageMemory},
		DevAPI: core.DevAPIConfig{
			SecretKey:            "test-secret",
			JWTExpirationDelta:   time.Hour,
			OAuthRedirectURL:     OAuthCallback,
			ResetPasswordURL:     ResetPasswordURL,
			PasswordResetTimeout: time.Hour,
			DefaultFromEmail:     mail.Address{Name: "LMS", Address: "noreply@lms.test"},
		},
	}
}

// DevAPI is a seeded dev API running on a local httptest server.
type DevAPI struct {
	*httptest.Server
	App      echoapi.Server
	Conf     *core.Config
	Accounts *echoapi.Accounts
	Catalog  *echoapi.Catalog
	Mail     *emailsvc.ConsoleService
}

// StartDevAPI starts a dev API seeded with echoapi.DefaultSeeds. Conf.API.BaseURL points at it.
func StartDevAPI(t *testing.T) *DevAPI {
	t.Helper()
	conf := Config()

	accts := echoapi.NewAccounts(bcrypt.MinCost)
	if err := echoapi.SeedAccounts(accts, echoapi.DefaultSeeds); err != nil {
		t.Fatalf("SeedAccounts() failed: %v", err)
	}
	catalog := echoapi.NewCatalog()
	echoapi.SeedCatalog(catalog, accts.All())

	mailer := emailsvc.NewConsoleService(conf, logsvc.NewZapLoggerFrom(zap.NewNop()))

	app := echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			Config:         conf,
			Accounts:       accts,
			Catalog:        catalog,
			Email:          mailer,
		},
		nil, /* shutdown */
	)
	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	conf.API.BaseURL = srv.URL + "/api"
	return &DevAPI{Server: srv, App: app, Conf: conf, Accounts: accts, Catalog: catalog, Mail: mailer}
}

// ResetToken returns the token of the newest reset link mailed to email, or "" when none was sent.
func (api *DevAPI) ResetToken(t *testing.T, email string) string {
	t.Helper()
	sent := api.Mail.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		msg := sent[i]
		if len(msg.To) == 0 || msg.To[0].Address != email {
			continue
		}
		for _, line := range strings.Split(msg.TextContent, "\n") {
			if !strings.HasPrefix(line, ResetPasswordURL) {
				continue
			}
			link, err := url.Parse(strings.TrimSpace(line))
			if err != nil {
				t.Fatalf("parsing reset link: %v", err)
			}
			return link.Query().Get("token")
		}
	}
	return ""
}

// Seed returns the default seed for role.
func Seed(t *testing.T, role user.Role) echoapi.Seed {
	t.Helper()
	for _, s := range echoapi.DefaultSeeds {
		if s.Role == role {
			return s
		}
	}
	t.Fatalf("no seed for role %q", role)
	return echoapi.Seed{}
}

func CreateUser(t *testing.T, accts *echoapi.Accounts, name, email, pwd string, role user.Role) user.User {
	t.Helper()
	usr, err := accts.Add(name, email, pwd, role)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
