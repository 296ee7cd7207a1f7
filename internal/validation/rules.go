// Package validation provides shared input validation rules.
package validation

import (
	"regexp"

	v "github.com/jellydator/validation"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailRules returns the validation rules for an email address field.
func EmailRules() []v.Rule {
	return []v.Rule{
		v.Required,
		v.Length(3, 254),
		v.Match(emailRegexp).Error("must be a valid email address"),
	}
}

// PasswordRules returns the validation rules for a plaintext password field.
func PasswordRules() []v.Rule {
	return []v.Rule{
		v.Required,
		v.Length(8, 128),
	}
}
