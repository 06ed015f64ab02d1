package strings

import (
	"strings"
	"unicode"
)

// ToPascalCase converts a name to PascalCase.
// Separators ('_', '-', '.', ' ') start a new word (info_object -> InfoObject)
// and existing inner capitals are preserved (externalDocs -> ExternalDocs).
func ToPascalCase(s string) string {
	var result strings.Builder
	upperNext := true

	for _, r := range s {
		if isSeparator(r) {
			upperNext = true
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if upperNext {
			result.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func isSeparator(r rune) bool {
	switch r {
	case '_', '-', '.', ' ':
		return true
	}
	return false
}
