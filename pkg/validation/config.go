// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ValidateLocale checks that locale is a well-formed BCP 47 tag and, when a
// supported list is given, that it is one of them.
func ValidateLocale(locale string, supported []string) error {
	trimmed := strings.TrimSpace(locale)
	if trimmed == "" {
		return fmt.Errorf("locale cannot be empty")
	}
	if _, err := language.Parse(trimmed); err != nil {
		return fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	if len(supported) == 0 {
		return nil
	}
	for _, s := range supported {
		if s == trimmed {
			return nil
		}
	}
	return fmt.Errorf("unsupported locale %q, expected one of %s", locale, strings.Join(supported, ", "))
}

// ValidateBounds checks a declared numeric range for authoring mistakes and
// returns a warning, or an empty string when the range is usable.
func ValidateBounds(name string, min, max, step *float64) string {
	if min != nil && max != nil && *min > *max {
		return fmt.Sprintf("Input '%s' has min greater than max (%g > %g)", name, *min, *max)
	}
	if step != nil && *step <= 0 {
		return fmt.Sprintf("Input '%s' has a non-positive step (%g)", name, *step)
	}
	return ""
}

// WithinBounds reports whether value respects the optional min and max.
func WithinBounds(value float64, min, max *float64) bool {
	if min != nil && value < *min {
		return false
	}
	if max != nil && value > *max {
		return false
	}
	return true
}
