package common

import (
	"strings"
	"unicode"
)

// UnknownStr is printed for enum values without a name.
const UnknownStr = "unknown"

// Slug lower-cases s and replaces every run of non-alphanumeric runes with a
// single dash. Returns "pipeline" when nothing is left.
func Slug(s string) string {
	var sb strings.Builder

	dash := false

	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}

			sb.WriteRune(r)

			dash = false

			continue
		}

		dash = true
	}

	if sb.Len() == 0 {
		return "pipeline"
	}

	return sb.String()
}

// GoIdent converts s into an exported Go identifier in CamelCase.
// Returns "Pipeline" when s has no letters or digits.
func GoIdent(s string) string {
	var sb strings.Builder

	upper := true

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}

		if sb.Len() == 0 && unicode.IsDigit(r) {
			sb.WriteString("Pipeline")
		}

		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}

		sb.WriteRune(r)
	}

	if sb.Len() == 0 {
		return "Pipeline"
	}

	return sb.String()
}
