package search

import (
	"strings"
	"unicode"

	"alcyxob/fitcoach/internal/domain"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips its diacritics, so "Abdômen" folds to "abdomen".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// MatchesMuscle reports whether muscleGroup contains filter after folding
// both. A blank filter matches everything.
func MatchesMuscle(muscleGroup, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.Contains(Fold(muscleGroup), Fold(filter))
}

// FilterByMuscle re-applies the muscle filter locally, for rows the backend
// matched loosely.
func FilterByMuscle(exercises []domain.Exercise, filter string) []domain.Exercise {
	if strings.TrimSpace(filter) == "" {
		return exercises
	}
	filtered := make([]domain.Exercise, 0, len(exercises))
	for _, ex := range exercises {
		if MatchesMuscle(ex.MuscleGroup, filter) {
			filtered = append(filtered, ex)
		}
	}
	return filtered
}
