// Package validate holds input validation shared by the API layer, the stores,
// and the slash commands.
package validate

import (
	"regexp"
	"strings"
)

var snowflakeRe = regexp.MustCompile(`^\d{17,19}$`)

// Snowflake reports whether id looks like a Discord snowflake.
func Snowflake(id string) bool {
	return snowflakeRe.MatchString(id)
}

// SanitizeInput trims whitespace and strips angle brackets, which Discord
// interprets as markup.
func SanitizeInput(in string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(in))
}

// ValidationError carries every violated constraint of one request, not just
// the first. It satisfies error so stores can return it directly.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Violations, ", ")
}

// NewValidationError builds a ValidationError from the collected violations.
// Returns nil when there are none, so callers can `if err := ...; err != nil`.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
