// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

// E.164-ish: optional + prefix, 2-15 digits, no leading zero.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone checks if a phone number is in a valid international format.
// Spaces, dashes, and parentheses are stripped before matching.
func ValidatePhone(phone string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
	return phonePattern.MatchString(cleaned)
}
