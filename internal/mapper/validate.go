package mapper

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// ValidateEmail sanitizes a raw resolved email and reports whether it is
// syntactically valid. Returns the cleaned address and false when the
// value is empty or malformed.
func ValidateEmail(raw string) (string, bool) {
	email := SanitizeField(raw)
	if email == "" {
		return "", false
	}
	if err := validate.Var(email, "email"); err != nil {
		return "", false
	}
	return email, true
}
