// Package lmsapi wraps the LMS REST endpoints the client consumes.
package lmsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/aliqadomi777/front-end-lms/core"
)

// ErrUnauthorized matches any *APIError with a 401 status.
var ErrUnauthorized = errors.New("unauthorized")

type (
	// HeaderSource supplies the Authorization header for authenticated calls.
	HeaderSource interface {
		AuthHeader() string
	}

	Options struct {
		BaseURL     string
		LoginPath   string
		ProfilePath string
		MePath      string
		HTTPClient  *http.Client
		Logger      core.Logger
	}

	Client struct {
		baseURL     string
		loginPath   string
		profilePath string
		mePath      string
		http        *http.Client
		auth        HeaderSource
		logger      core.Logger
	}
)

// APIError is a non-successful API response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lms api: %d: %s", e.StatusCode, e.Message)
}

// ServerMessage is the human-readable message the server sent, if any.
func (e *APIError) ServerMessage() string { return e.Message }

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		loginPath:   opts.LoginPath,
		profilePath: opts.ProfilePath,
		mePath:      opts.MePath,
		http:        httpClient,
		logger:      opts.Logger,
	}
	if c.loginPath == "" {
		c.loginPath = "/users/login"
	}
	if c.profilePath == "" {
		c.profilePath = "/users/profile"
	}
	if c.mePath == "" {
		c.mePath = "/users/me"
	}
	return c
}

// NewClientFromConfig builds a client for conf.API.
func NewClientFromConfig(conf *core.Config, logger core.Logger) *Client {
	return NewClient(Options{
		BaseURL:     conf.API.BaseURL,
		LoginPath:   conf.API.LoginPath,
		ProfilePath: conf.API.ProfilePath,
		MePath:      conf.API.MePath,
		Logger:      logger,
	})
}

// SetAuth sets the header source used by authenticated page calls.
func (c *Client) SetAuth(src HeaderSource) {
	c.auth = src
}

func (c *Client) authHeader() string {
	if c.auth == nil {
		return ""
	}
	return c.auth.AuthHeader()
}

// envelope is the loose response shape of the LMS API: payloads may sit at the top level or under "data".
type envelope map[string]json.RawMessage

func (env envelope) success() (bool, bool) {
	raw, ok := env["success"]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

func (env envelope) message() string {
	var msg string
	if raw, ok := env["message"]; ok {
		_ = json.Unmarshal(raw, &msg)
	}
	return msg
}

// field decodes key from the top level, else from the "data" object.
func (env envelope) field(key string, dst interface{}) bool {
	if raw, ok := env[key]; ok && !isNull(raw) {
		return json.Unmarshal(raw, dst) == nil
	}
	if data := env.data(); data != nil {
		if raw, ok := data[key]; ok && !isNull(raw) {
			return json.Unmarshal(raw, dst) == nil
		}
	}
	return false
}

func (env envelope) data() envelope {
	raw, ok := env["data"]
	if !ok || isNull(raw) {
		return nil
	}
	var data envelope
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// do sends a JSON request and decodes the JSON envelope. authHeader is sent verbatim when not empty.
// Non-2xx responses and {"success": false} bodies become *APIError, using fallbackMsg when the
// server gave no message.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	authHeader string,
	body interface{},
	fallbackMsg string,
) (envelope, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()
	if c.logger != nil {
		c.logger.Debug(fmt.Sprintf("lmsapi: %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start)))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, errors.Wrap(err, "decoding response")
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.message()
		if msg == "" {
			if msg = fallbackMsg; msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if ok, present := env.success(); present && !ok {
		msg := env.message()
		if msg == "" {
			msg = fallbackMsg
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return env, nil
}
