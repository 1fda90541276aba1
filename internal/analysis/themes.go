package analysis

import (
	"strings"
	"unicode"
)

// ValidateThemes keeps only themes whose example comment is backed by one of
// the fetched comments, verbatim or near-identically (case, surrounding
// whitespace, and punctuation do not count). Unsupported themes are the usual
// failure mode of the comment classifier inventing its examples.
func ValidateThemes(themes []Theme, fetchedComments []string) []Theme {
	if len(themes) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(fetchedComments))
	for _, comment := range fetchedComments {
		if folded := foldComment(comment); folded != "" {
			normalized = append(normalized, folded)
		}
	}

	kept := make([]Theme, 0, len(themes))
	for _, theme := range themes {
		example := foldComment(theme.ExampleComment)
		if example == "" {
			continue
		}
		for _, comment := range normalized {
			if comment == example || strings.Contains(comment, example) {
				kept = append(kept, theme)
				break
			}
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// foldComment lowercases, strips punctuation, and collapses whitespace so
// trivially reformatted quotes still match.
func foldComment(comment string) string {
	var b strings.Builder
	b.Grow(len(comment))
	for _, r := range comment {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
