package question

import "strings"

// Difficulty labels stored in the difficulty side table.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// NormalizeDifficulty maps free-form difficulty text onto a canonical label.
// Unrecognized or blank input yields "" so callers can apply their own default.
func NormalizeDifficulty(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case v == "":
		return ""
	case strings.HasPrefix(v, "easy"):
		return DifficultyEasy
	case strings.HasPrefix(v, "hard"):
		return DifficultyHard
	case strings.HasPrefix(v, "med"):
		return DifficultyMedium
	default:
		return ""
	}
}

// DifficultyOrMedium normalizes raw and falls back to Medium.
func DifficultyOrMedium(raw string) string {
	if d := NormalizeDifficulty(raw); d != "" {
		return d
	}
	return DifficultyMedium
}
