package chunk

import (
	"strings"
	"unicode/utf8"
)

// Default splitting parameters: children small enough for precise similarity
// matching, parents large enough to carry full answer context.
const (
	DefaultParentSize    = 1500
	DefaultParentOverlap = 200
	DefaultChildSize     = 500
	DefaultChildOverlap  = 100
)

// Parent is a large document segment. ParentID is the 0-based position of the
// segment in the split sequence.
type Parent struct {
	ParentID int
	Text     string
}

// Child is a small segment cut from one parent's text. It inherits the
// owning parent's id, so its text is always a contiguous substring of that
// parent's text.
type Child struct {
	ParentID int
	Text     string
}

// separators tried in order when looking for a split point: paragraph break,
// sentence end, line break, word boundary.
var separators = []string{"\n\n", ". ", "! ", "? ", "\n", " "}

// SplitHierarchical splits text into parent segments, then each parent into
// child segments. Identical input and parameters always produce an identical
// sequence.
func SplitHierarchical(text string, parentSize, parentOverlap, childSize, childOverlap int) ([]Parent, []Child) {
	parentTexts := Split(text, parentSize, parentOverlap)

	parents := make([]Parent, 0, len(parentTexts))
	var children []Child
	for idx, parentText := range parentTexts {
		parents = append(parents, Parent{ParentID: idx, Text: parentText})
		for _, childText := range Split(parentText, childSize, childOverlap) {
			children = append(children, Child{ParentID: idx, Text: childText})
		}
	}
	return parents, children
}

// Split cuts text into segments of at most size runes, preferring paragraph,
// sentence and word boundaries over hard character cuts, with overlap runes
// carried from the end of one segment into the start of the next. The final
// segment may run up to size+overlap runes so the tail is never degenerate.
func Split(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var out []string
	pos := 0
	for {
		if len(runes)-pos <= size {
			out = append(out, string(runes[pos:]))
			break
		}
		cut := findBreak(runes, pos, pos+size)
		out = append(out, string(runes[pos:cut]))

		next := cut - overlap
		if next <= pos {
			next = cut
		}
		if len(runes)-next <= size+overlap {
			out = append(out, string(runes[next:]))
			break
		}
		pos = next
	}
	return out
}

// findBreak picks a split point in (start, hardEnd], scanning the back half
// of the window for the latest occurrence of each separator in preference
// order. Falls back to a hard cut at hardEnd.
func findBreak(runes []rune, start, hardEnd int) int {
	windowStart := start + (hardEnd-start)/2
	window := string(runes[windowStart:hardEnd])

	for _, sep := range separators {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			cut := windowStart + utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
			if cut > start && cut <= hardEnd {
				return cut
			}
		}
	}
	return hardEnd
}
