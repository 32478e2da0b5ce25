package services

import "strings"

// Slugify derives a URL-safe slug from a category name: lowercase, runs of
// whitespace collapsed to a single hyphen, anything outside [a-z0-9_-]
// dropped. Matches the slug rule used by the bulk-import file format.
func Slugify(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	inSpace := false
	for _, r := range lower {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !inSpace && b.Len() > 0 {
				b.WriteByte('-')
			}
			inSpace = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
			inSpace = false
		default:
			// non-word characters are dropped, not hyphenated
			inSpace = false
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
