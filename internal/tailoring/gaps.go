package tailoring

import (
	"regexp"
	"strings"

	"resumetailor/internal/types"
)

// Section detection is a best-effort heuristic, not a resume parser. Headers must
// stand alone on their line so prose such as "Skills-focused engineer" is skipped.
var (
	skillsHeaderRe     = regexp.MustCompile(`(?im)^[ \t]*(technical[ \t]+)?(skills|core competencies|technologies)[ \t]*:?[ \t]*\r?$`)
	experienceHeaderRe = regexp.MustCompile(`(?im)^[ \t]*(professional[ \t]+|work[ \t]+)?(experience|work history|employment( history)?)[ \t]*:?[ \t]*\r?$`)
	bulletLineRe       = regexp.MustCompile(`(?m)^[ \t]*(•|-|\*).*$`)

	// nextSectionRe marks where a section ends: a short line ending in a colon
	// or a bare well-known section name.
	nextSectionRe = regexp.MustCompile(`(?im)^[ \t]*([a-z][a-z &/-]{0,40}:|((technical[ \t]+)?skills|core competencies|technologies|education|projects|certifications|summary|profile|awards|publications|languages|interests|volunteering|references))[ \t]*\r?$`)
)

const bullet = "• "

// ApplyGap rewrites resume text for one gap and reports whether anything changed.
// Additive actions insert lines; the rest append bracketed annotations and never
// delete existing text.
func ApplyGap(resume string, gap types.GapAction) (string, bool) {
	switch gap.ActionType {
	case types.ActionAdd:
		keyword := firstNonEmpty(gap.SuggestedKeyword, gap.SuggestedText)
		if keyword == "" {
			return resume, false
		}
		return insertUnderHeader(resume, skillsHeaderRe, false, keyword, "Skills"), true

	case types.ActionAddNewBullet:
		text := firstNonEmpty(gap.SuggestedText, gap.Action)
		if text == "" {
			return resume, false
		}
		return insertUnderHeader(resume, experienceHeaderRe, true, text, "Experience"), true

	case types.ActionStrengthen:
		return resume + "\n[Action: Strengthen - " + gap.Action + "]", true

	case types.ActionReorganize, types.ActionRemove:
		return resume + "\n[Note: " + gap.Action + "]", true
	}
	return resume, false
}

// insertUnderHeader places "• line" after the first header matched by re, or after
// the first bullet of that header's section when afterBullet is set. Without a
// header a new section is appended.
func insertUnderHeader(resume string, re *regexp.Regexp, afterBullet bool, line, section string) string {
	loc := re.FindStringIndex(resume)
	if loc == nil {
		return resume + "\n\n" + section + ":\n" + bullet + line + "\n"
	}

	at := loc[1]
	if afterBullet {
		body := resume[at:]
		if next := nextSectionRe.FindStringIndex(body); next != nil {
			body = body[:next[0]]
		}
		if b := bulletLineRe.FindStringIndex(body); b != nil {
			at += b[1]
		}
	}
	return insertAfterLine(resume, at, bullet+line)
}

// insertAfterLine inserts text as a new line after the line ending at pos,
// reusing that line's CRLF or LF ending
func insertAfterLine(resume string, pos int, text string) string {
	if pos < len(resume) && resume[pos] == '\r' {
		pos++
	}
	eol := "\n"
	if pos > 0 && resume[pos-1] == '\r' {
		eol = "\r\n"
	}
	if pos < len(resume) && resume[pos] == '\n' {
		return resume[:pos+1] + text + eol + resume[pos+1:]
	}
	// Header is the last line and has no trailing newline.
	return resume[:pos] + eol + text + eol + resume[pos:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
