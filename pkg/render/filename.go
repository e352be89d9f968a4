package render

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// maxSlugLen bounds slugs so full paths stay comfortably under filesystem
// name limits.
const maxSlugLen = 50

// dateFormats are the post date layouts tried in order. WordPress returns
// local time without an offset; some installations append one.
var dateFormats = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ParseDate parses a WordPress post date string.
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Slug converts a post title to a filename-safe fragment: letters and digits
// (any script) pass through, every other run of characters becomes a single
// underscore, the result is truncated to maxSlugLen runes, and trailing
// underscores are trimmed.
func Slug(title string) string {
	var runes []rune
	pendingSep := false
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && len(runes) > 0 {
				runes = append(runes, '_')
			}
			pendingSep = false
			runes = append(runes, r)
		} else {
			pendingSep = true
		}
	}
	if len(runes) > maxSlugLen {
		runes = runes[:maxSlugLen]
	}
	return strings.TrimRight(string(runes), "_")
}

// DocumentName builds the output filename for a post. An unparseable date
// yields the unknown_date fallback keyed by post ID.
func DocumentName(id int, title, date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return fmt.Sprintf("unknown_date_%d.pdf", id)
	}
	return fmt.Sprintf("%s_%s.pdf", t.Format("20060102"), Slug(title))
}

// ErrorDocumentName builds the filename for a degraded error document.
func ErrorDocumentName(id int, title string) string {
	return fmt.Sprintf("error_%d_%s.pdf", id, Slug(title))
}
