package clean

import (
	"regexp"
	"strings"
)

var (
	hyphenBreakRe = regexp.MustCompile(`(\w+)-\s*\n\s*(\w+)`)
	numeralLineRe = regexp.MustCompile(`^[\dIVXLCDMivxlcdm]+$`)
	romanTokenRe  = regexp.MustCompile(`^[IVXLCDM]{2,}$`)
	whitespaceRe  = regexp.MustCompile(`\s+`)

	quoteReplacer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

// Normalize cleans OCR-extracted text: rejoins words hyphenated across line
// breaks, drops page-number artifacts, collapses soft line wraps and
// whitespace runs, and replaces typographic quotes with ASCII ones.
// It is deterministic and idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := repairHyphenation(raw)
	text = stripPageArtifacts(text)
	text = collapseSoftBreaks(text)
	text = collapseWhitespace(text)
	return quoteReplacer.Replace(text)
}

// repairHyphenation rejoins a word broken across a line by a trailing hyphen.
func repairHyphenation(s string) string {
	return hyphenBreakRe.ReplaceAllString(s, "$1$2")
}

// stripPageArtifacts removes page-number residue while line structure still
// exists: lines consisting solely of a decimal or Roman numeral, and an
// uppercase Roman numeral dangling at a line end right before the break (an
// OCR page footer run into the sentence). The dangling case is uppercase
// only so soft-wrapped words like "mild" or "civil" survive. Runs before
// soft-break collapsing, otherwise the artifact gets merged into the
// surrounding text and the whole-line match never sees it.
func stripPageArtifacts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && numeralLineRe.MatchString(trimmed) {
			lines[i] = ""
			continue
		}
		if i == len(lines)-1 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 1 && romanTokenRe.MatchString(fields[len(fields)-1]) {
			lines[i] = line[:strings.LastIndex(line, fields[len(fields)-1])]
		}
	}
	return strings.Join(lines, "\n")
}

// collapseSoftBreaks replaces single newlines that are not sentence-terminal
// and not part of a blank-line paragraph break with a space.
func collapseSoftBreaks(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range rs {
		if r != '\n' {
			b.WriteRune(r)
			continue
		}
		var prev, next rune
		if i > 0 {
			prev = rs[i-1]
		}
		if i+1 < len(rs) {
			next = rs[i+1]
		}
		if prev == '.' || prev == '?' || prev == '!' || prev == '\n' || next == '\n' {
			b.WriteRune('\n')
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
