package videoid

import (
	"net/url"
	"strings"

	"worthit/internal/services"
)

// ID is a canonical content identifier. Equality is exact match.
type ID string

func (id ID) String() string { return string(id) }

const idLength = 11

// Resolve parses a content reference into a canonical identifier.
func Resolve(ref string) (ID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", services.Wrap(services.ErrValidation, "videoid", "resolve", "empty reference", nil)
	}

	if isCanonical(ref) {
		return ID(ref), nil
	}

	candidate := ref
	if !strings.Contains(candidate, "://") {
		// Tolerate scheme-less URLs shared from address bars.
		if strings.Contains(candidate, "/") || strings.Contains(candidate, ".") {
			candidate = "https://" + candidate
		}
	}

	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Host == "" {
		return "", services.Wrap(services.ErrValidation, "videoid", "resolve", "unrecognized reference "+quote(ref), nil)
	}

	id, ok := extractFromURL(parsed)
	if !ok {
		return "", services.Wrap(services.ErrValidation, "videoid", "resolve", "no video id in "+quote(ref), nil)
	}
	return ID(id), nil
}

func extractFromURL(u *url.URL) (string, bool) {
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	path := strings.Trim(u.Path, "/")
	segments := strings.Split(path, "/")

	switch host {
	case "youtu.be":
		if len(segments) > 0 && isCanonical(segments[0]) {
			return segments[0], true
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); isCanonical(v) {
			return v, true
		}
		if len(segments) >= 2 {
			switch segments[0] {
			case "shorts", "embed", "live", "v":
				if isCanonical(segments[1]) {
					return segments[1], true
				}
			}
		}
	}
	return "", false
}

// isCanonical reports whether s is exactly an 11-character video id drawn
// from the URL-safe base64 alphabet.
func isCanonical(s string) bool {
	if len(s) != idLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}

func quote(s string) string {
	const limit = 80
	runes := []rune(s)
	if len(runes) > limit {
		s = string(runes[:limit]) + "..."
	}
	return `"` + s + `"`
}
