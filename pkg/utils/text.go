package utils

// Truncate returns s truncated to at most maxLen runes, with "..." appended
// when truncation occurred. If maxLen is 0 or negative, returns s unchanged.
// Truncation never splits a multi-byte character.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
