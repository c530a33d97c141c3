package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/aliqadomi777/front-end-lms/core"
)

// Role tags a session with the route subtree and menu it may use.
type Role string

// Roles
const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleInstructor, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole cleans s and returns the matching Role, or "" when unknown.
func ParseRole(s string) Role {
	r := Role(core.CleanString(s, true /* lower */))
	if !r.Valid() {
		return ""
	}
	return r
}

type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) IsStudent() bool { return u.Role == RoleStudent }

// LoginForm contains the credentials a caller collects before calling Login.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Validate cleans the form and checks it, returning a *core.ValidationError on failure.
func (lf *LoginForm) Validate(validate *validator.Validate, translator ut.Translator) error {
	lf.Email = core.CleanString(lf.Email, true /* lower */)
	if err := validate.Struct(lf); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}

// RegisterForm is a self-registration request. Admin accounts cannot self-register.
type RegisterForm struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required,signuprole"`
}

func (rf *RegisterForm) Validate(validate *validator.Validate, translator ut.Translator) error {
	rf.Name = core.CleanString(rf.Name)
	rf.Email = core.CleanString(rf.Email, true /* lower */)
	rf.Role = Role(core.CleanString(string(rf.Role), true /* lower */))
	if err := validate.Struct(rf); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}

// ForgotPasswordForm asks for a password reset link.
type ForgotPasswordForm struct {
	Email string `json:"email" validate:"required,email"`
}

func (ff *ForgotPasswordForm) Validate(validate *validator.Validate, translator ut.Translator) error {
	ff.Email = core.CleanString(ff.Email, true /* lower */)
	if err := validate.Struct(ff); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}

// ResetPasswordForm sets a new password with the token from a reset link.
// ConfirmPassword is only checked when set; the API itself receives the new password once.
type ResetPasswordForm struct {
	Email           string `json:"email" validate:"required,email"`
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"omitempty,eqfield=NewPassword"`
}

func (rf *ResetPasswordForm) Validate(validate *validator.Validate, translator ut.Translator) error {
	rf.Email = core.CleanString(rf.Email, true /* lower */)
	rf.Token = core.CleanString(rf.Token)
	if err := validate.Struct(rf); err != nil {
		return core.TranslateErrors(err, translator)
	}
	return nil
}
