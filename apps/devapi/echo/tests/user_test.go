package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/aliqadomi777/front-end-lms/apps/devapi/echo"
	"github.com/aliqadomi777/front-end-lms/core/session"
	"github.com/aliqadomi777/front-end-lms/core/user"
	"github.com/aliqadomi777/front-end-lms/tests"
)

var (
	seededStudent = user.User{ID: 1, Name: "Student", Email: "student@lms.local", Role: user.RoleStudent}
	seededAdmin   = user.User{ID: 3, Name: "Admin", Email: "admin@lms.local", Role: user.RoleAdmin}
)

func Test_userApi_login(t *testing.T) {
	api := testutil.StartDevAPI(t)

	form := func(email, pwd string) []byte {
		return marshalObj(t, map[string]string{"email": email, "password": pwd})
	}
	invalidCreds := []byte(`{"success":false,"message":"Invalid credentials"}`)

	tests := []httpTest{
		{
			name:     "wrong password",
			body:     form("student@lms.local", "nope"),
			wantCode: http.StatusUnauthorized,
			wantData: invalidCreds,
		},
		{
			name:     "unknown email",
			body:     form("ghost@lms.local", "student123"),
			wantCode: http.StatusUnauthorized,
			wantData: invalidCreds,
		},
		{
			name:     "missing email",
			body:     form("", "student123"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"Email is required","errors":{"email":"Email is required"}}`),
		},
		{
			name:     "invalid email",
			body:     form("student", "student123"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"Invalid email","errors":{"email":"Invalid email"}}`),
		},
		{
			name:     "missing password",
			body:     form("student@lms.local", ""),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"Password is required","errors":{"password":"Password is required"}}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/login", tt.body)
			api.App.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/login", form("  Student@LMS.local ", "student123"))
		api.App.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				User  user.User `json:"user"`
				Token string    `json:"token"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, seededStudent, resp.Data.User)

		claims := new(echoapi.Claims)
		_, err := jwt.ParseWithClaims(resp.Data.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(api.Conf.DevAPI.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "1", claims.Subject)
		assert.Equal(t, user.RoleStudent, claims.Role)

		exp, ok := session.TokenExpiry(resp.Data.Token)
		require.True(t, ok)
		assert.Equal(t, claims.ExpiresAt, exp.Unix())
	})
}

func Test_userApi_profile(t *testing.T) {
	api := testutil.StartDevAPI(t)
	studentToken := loginToken(t, api, user.RoleStudent)
	adminToken := loginToken(t, api, user.RoleAdmin)

	tests := []httpTest{
		{
			name:     "no token",
			path:     "/api/users/profile",
			wantCode: http.StatusUnauthorized,
			wantData: []byte(`{"success":false,"message":"Not authorized, no token"}`),
		},
		{
			name:     "garbage token",
			path:     "/api/users/profile",
			token:    "not-a-jwt",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "student",
			path:     "/api/users/profile",
			token:    studentToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, map[string]interface{}{"success": true, "user": seededStudent}),
		},
		{
			name:     "admin",
			path:     "/api/users/profile",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, map[string]interface{}{"success": true, "user": seededAdmin}),
		},
		{
			name:     "me",
			path:     "/api/users/me",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, map[string]interface{}{"success": true, "data": seededAdmin}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			api.App.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_google(t *testing.T) {
	api := testutil.StartDevAPI(t)

	t.Run("missing email", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/google")
		api.App.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"success":false,"message":"Email is required","errors":{"email":"Email is required"}}`),
		}, rec)
	})

	t.Run("unknown account", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/google?email=ghost@lms.local")
		api.App.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)

		loc := rec.Header().Get("Location")
		assert.True(t, strings.HasPrefix(loc, testutil.OAuthCallback+"?"), loc)
		_, err := session.OAuthToken(loc)
		assert.Equal(t, session.ErrNoOAuthToken, err)
	})

	t.Run("known account", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/google?"+url.Values{"email": {"instructor@lms.local"}}.Encode())
		api.App.ServeHTTP(rec, req)
		require.Equal(t, http.StatusFound, rec.Code)

		token, err := session.OAuthToken(rec.Header().Get("Location"))
		require.NoError(t, err)

		req, rec = newAuthRequest(http.MethodGet, "/api/users/me", token)
		api.App.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"role":"instructor"`)
	})
}
