package extraction

import "strings"

var emphasisMarkers = []string{"**", "__", "*", "_", "`"}

// CleanTitle strips inline emphasis markup, collapses whitespace and trims
// trailing punctuation before a title is stored.
func CleanTitle(raw string, maxLen int) string {
	s := raw
	for _, m := range emphasisMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, " .,;:-–")
	if maxLen > 0 {
		if runes := []rune(s); len(runes) > maxLen {
			s = strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return s
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
