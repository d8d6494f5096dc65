package knowledge

import "strings"

func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func contains(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(haystack, needle)
}
