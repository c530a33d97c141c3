package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/aliqadomi777/front-end-lms/core"
)

var (
	signupRoleTag  = "signuprole"
	signupRoleText = "Role must be student or instructor"

	eqFieldTag  = "eqfield"
	eqFieldText = "Passwords must match"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("Password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "Password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "Password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "Password is too similar to your name or email"
)

// NewValidator returns core.NewValidator with the user forms' rules registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate, translator
}

// InitValidators registers the user validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(signupRoleTag, signupRoleValidation)
	core.RegisterCustomTranslation(validate, translator, signupRoleTag, signupRoleText)
	core.RegisterCustomTranslation(validate, translator, eqFieldTag, eqFieldText, true)

	validate.RegisterStructValidation(formStructValidation, RegisterForm{}, ResetPasswordForm{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// signupRoleValidation accepts the roles an account may register itself with.
func signupRoleValidation(fl validator.FieldLevel) bool {
	switch Role(fl.Field().String()) {
	case RoleStudent, RoleInstructor:
		return true
	}
	return false
}

func formStructValidation(sl validator.StructLevel) {
	switch form := sl.Current().Interface().(type) {
	case RegisterForm:
		if form.Password != "" {
			validatePassword(form.Password, "password", "Password", sl, form.Name, form.Email)
		}
	case ResetPasswordForm:
		if form.NewPassword != "" {
			validatePassword(form.NewPassword, "newPassword", "NewPassword", sl, form.Email)
		}
	}
}

// validatePassword applies the password policy to pwd:
// - minLen: 8
// - no whitespace
// - not all numeric
// - not similar to the user's attributes
func validatePassword(pwd, field, structField string, sl validator.StructLevel, attrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, field, structField, tag, "")
	}

	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	var digitCount int
	for _, char := range runes {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}
	if digitCount == len(runes) {
		reportErr(pwdNotAllNumTag)
		return
	}

	for _, attr := range attrs {
		if similarity(pwd, attr) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	pwd, attr = strings.ToLower(pwd), strings.ToLower(attr)
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(attr, "")).QuickRatio()
}
