package tailoring

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Slugify lowercases s and joins its letter and digit runs with hyphens
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ExportFilename returns tailored-<role-slug>-<YYYY-MM-DD>.txt using the UTC date
func ExportFilename(roleTitle string, now time.Time) string {
	slug := Slugify(roleTitle)
	if slug == "" {
		slug = "resume"
	}
	return fmt.Sprintf("tailored-%s-%s.txt", slug, now.UTC().Format(time.DateOnly))
}
