package secrets

import (
	"strings"

	masker "github.com/goliatone/go-masker"
)

const maskRule = "preserveEnds(2,2)"

// Mask hides all but the first and last two characters of value.
func Mask(value string) string {
	if value == "" {
		return ""
	}
	if masked, err := masker.Default.String(maskRule, value); err == nil && masked != value {
		return masked
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
