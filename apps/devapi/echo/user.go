package echoapi

import (
	"net/http"
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/session"
	"github.com/aliqadomi777/front-end-lms/core/user"
)

type userApi struct {
	accts      *Accounts
	auth       *authenticator
	resets     *resetTokens
	email      core.EmailService
	validate   *validator.Validate
	translator ut.Translator
	appName    string
	callback   string
	resetURL   string
}

const forgotPasswordMessage = "If an account exists for that email, a reset link has been sent."

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *userApi) {
	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)
	ug.POST("/register", api.register)
	ug.POST("/forgot-password", api.forgotPassword)
	ug.POST("/reset-password", api.resetPassword)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.GET("/profile", api.profile)
	ag.GET("/me", api.me)

	// dev stand-in for the Google consent screen
	g.GET("/auth/google", api.google)
}

// Handlers

func (api *userApi) login(ctx echo.Context) error {
	var form user.LoginForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to LoginForm")
	}
	if err := form.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := api.accts.Authenticate(form.Email, form.Password)
	if err != nil {
		if err == ErrAccountNotFound {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.generateToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"data":    echo.Map{"user": usr, "token": token},
	})
}

func (api *userApi) register(ctx echo.Context) error {
	var form user.RegisterForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to RegisterForm")
	}
	if err := form.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, err := api.accts.Add(form.Name, form.Email, form.Password, form.Role)
	if err != nil {
		if err == ErrDuplicateEmail {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "Email is already registered"})
		}
		return errors.Wrap(err, "adding account")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Registration successful",
		"user":    usr,
	})
}

// forgotPassword mails a reset link. It answers the same whether or not the account exists.
func (api *userApi) forgotPassword(ctx echo.Context) error {
	var form user.ForgotPasswordForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ForgotPasswordForm")
	}
	if err := form.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, hash, err := api.accts.Credentials(form.Email)
	switch {
	case err == ErrAccountNotFound:
		// same answer, no mail
	case err != nil:
		return errors.Wrap(err, "finding user by email")
	default:
		link, err := url.Parse(api.resetURL)
		if err != nil {
			return errors.Wrap(err, "parsing reset password URL")
		}
		q := link.Query()
		q.Set("token", api.resets.make(usr, hash))
		q.Set("email", usr.Email)
		link.RawQuery = q.Encode()

		msg, err := resetPasswordEmail(usr, api.appName, link.String(), api.resets.timeout)
		if err != nil {
			return errors.Wrap(err, "building reset password email")
		}
		api.email.SendMessages(msg)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": forgotPasswordMessage})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var form user.ResetPasswordForm
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to ResetPasswordForm")
	}
	if err := form.Validate(api.validate, api.translator); err != nil {
		return err
	}

	usr, hash, err := api.accts.Credentials(form.Email)
	if err != nil {
		if err == ErrAccountNotFound {
			return errInvalidResetLink
		}
		return errors.Wrap(err, "finding user by email")
	}
	if err := api.resets.verify(usr, hash, form.Token); err != nil {
		return errInvalidResetLink
	}
	if err := api.accts.SetPassword(usr.ID, form.NewPassword); err != nil {
		return errors.Wrap(err, "setting password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Password has been reset"})
}

func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.accts)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr})
}

// me answers with the user as the whole "data" object, as the OAuth callback expects.
func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.accts)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": usr})
}

// google signs in the account for ?email= and redirects to the client callback with the token.
// Unknown accounts are redirected with ?error= and no token.
func (api *userApi) google(ctx echo.Context) error {
	email := core.CleanString(ctx.QueryParam("email"), true /* lower */)
	if email == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "Email is required"})
	}
	target, err := url.Parse(api.callback)
	if err != nil {
		return errors.Wrap(err, "parsing OAuth redirect URL")
	}
	q := target.Query()

	usr, err := api.accts.GetByEmail(email)
	switch {
	case err == ErrAccountNotFound:
		q.Set("error", "account_not_found")
	case err != nil:
		return errors.Wrap(err, "finding user by email")
	default:
		token, err := api.auth.generateToken(usr)
		if err != nil {
			return errors.Wrap(err, "generating token")
		}
		q.Set(session.OAuthTokenParam, token)
	}
	target.RawQuery = q.Encode()
	return ctx.Redirect(http.StatusFound, target.String())
}
