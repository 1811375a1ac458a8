package security

import "regexp"

// maxEmailLength is the RFC 5321 ceiling for a full address.
const maxEmailLength = 254

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// IsValidEmail reports whether the address has a conventional shape and fits
// within the length ceiling. Empty input is invalid; callers decide whether
// the field is optional.
func IsValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	return emailPattern.MatchString(email)
}

// IsValidPhone reports whether the number carries between 7 and 15 digits
// once every non-digit character is stripped. An empty phone is valid;
// the field is optional throughout the pipeline.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return true
	}
	digits := nonDigitPattern.ReplaceAllString(phone, "")
	return len(digits) >= 7 && len(digits) <= 15
}
