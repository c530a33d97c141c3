package lmsapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aliqadomi777/front-end-lms/core/user"
)

const (
	registerPath       = "/users/register"
	forgotPasswordPath = "/users/forgot-password"
	resetPasswordPath  = "/users/reset-password"
)

type (
	loginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	resetPasswordRequest struct {
		Email       string `json:"email"`
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
)

// Login exchanges credentials for the user and a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (user.User, string, error) {
	env, err := c.do(ctx, http.MethodPost, c.loginPath, nil, "", loginRequest{email, password}, "Login failed")
	if err != nil {
		return user.User{}, "", err
	}

	var (
		usr   user.User
		token string
	)
	if !env.field("user", &usr) || !env.field("token", &token) || token == "" {
		return user.User{}, "", &APIError{StatusCode: http.StatusOK, Message: firstNonEmpty(env.message(), "Login failed")}
	}
	return usr, token, nil
}

// Profile fetches the user token belongs to. The token is passed explicitly because it is
// validated before the session adopts it.
func (c *Client) Profile(ctx context.Context, token string) (user.User, error) {
	return c.fetchUser(ctx, c.profilePath, token, "Failed to fetch profile")
}

// Me is the profile endpoint the OAuth callback uses; its user may be the whole "data" object.
func (c *Client) Me(ctx context.Context, token string) (user.User, error) {
	return c.fetchUser(ctx, c.mePath, token, "Google login failed. Please try again.")
}

func (c *Client) fetchUser(ctx context.Context, path, token, fallbackMsg string) (user.User, error) {
	env, err := c.do(ctx, http.MethodGet, path, nil, "Bearer "+token, nil, fallbackMsg)
	if err != nil {
		return user.User{}, err
	}

	var usr user.User
	if env.field("user", &usr) {
		return usr, nil
	}
	if raw, ok := env["data"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &usr); err == nil && usr.Role != "" {
			return usr, nil
		}
	}
	return user.User{}, &APIError{StatusCode: http.StatusOK, Message: firstNonEmpty(env.message(), fallbackMsg)}
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, form user.RegisterForm) (user.User, error) {
	env, err := c.do(ctx, http.MethodPost, registerPath, nil, "", form, "Registration failed")
	if err != nil {
		return user.User{}, err
	}
	var usr user.User
	if !env.field("user", &usr) {
		return user.User{}, &APIError{StatusCode: http.StatusOK, Message: firstNonEmpty(env.message(), "Registration failed")}
	}
	return usr, nil
}

// ForgotPassword asks the server to mail a reset link and returns its message.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	env, err := c.do(ctx, http.MethodPost, forgotPasswordPath, nil, "", user.ForgotPasswordForm{Email: email}, "Failed to send reset link")
	if err != nil {
		return "", err
	}
	return firstNonEmpty(env.message(), "Reset link sent"), nil
}

// ResetPassword sets a new password using the token from a reset link and returns the server's message.
func (c *Client) ResetPassword(ctx context.Context, email, token, newPassword string) (string, error) {
	body := resetPasswordRequest{Email: email, Token: token, NewPassword: newPassword}
	env, err := c.do(ctx, http.MethodPost, resetPasswordPath, nil, "", body, "Reset failed")
	if err != nil {
		return "", err
	}
	return firstNonEmpty(env.message(), "Password has been reset"), nil
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
