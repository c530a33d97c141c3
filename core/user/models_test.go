package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliqadomi777/front-end-lms/core"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "student", want: RoleStudent},
		{in: " Instructor ", want: RoleInstructor},
		{in: "ADMIN", want: RoleAdmin},
		{in: "tutor"},
		{in: ""},
	}
	for _, tt := range tests {
		if got := ParseRole(tt.in); got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoginForm_Validate(t *testing.T) {
	validate, translator := core.NewValidator()

	tests := []struct {
		name       string
		form       LoginForm
		wantFields map[string]string
	}{
		{
			name:       "empty",
			wantFields: map[string]string{"email": "Email is required", "password": "Password is required"},
		},
		{
			name:       "bad email",
			form:       LoginForm{Email: "nope", Password: "secret"},
			wantFields: map[string]string{"email": "Invalid email"},
		},
		{
			name: "valid",
			form: LoginForm{Email: "  A@X.com ", Password: "secret"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(validate, translator)
			if tt.wantFields == nil {
				require.NoError(t, err)
				assert.Equal(t, "a@x.com", tt.form.Email)
				return
			}
			vErr, ok := err.(*core.ValidationError)
			require.True(t, ok, "want *core.ValidationError, got %T", err)
			assert.Equal(t, tt.wantFields, vErr.FieldMap())
		})
	}
}
