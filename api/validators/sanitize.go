package validators

import "strings"

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// NormalizeISBN strips separators so "978-0-13-468599-1" and
// "9780134685991" address the same catalog row.
func NormalizeISBN(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(input))
	return strings.ToUpper(cleaned)
}
