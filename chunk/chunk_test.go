package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	out := Split("short text", 100, 10)
	require.Len(t, out, 1)
	assert.Equal(t, "short text", out[0])
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 100, 10))
	assert.Nil(t, Split("   \n ", 100, 10))
}

func TestSplitTwoParentsWithOverlap(t *testing.T) {
	// 3000 runes with no soft boundaries force hard cuts: exactly two parents
	// sharing ~200 runes around the seam.
	text := strings.Repeat("abcdefghij", 300)
	out := Split(text, 1500, 200)
	require.Len(t, out, 2)

	runes := []rune(text)
	assert.Equal(t, string(runes[:1500]), out[0])
	assert.Equal(t, string(runes[1300:]), out[1])
	assert.Equal(t, string(runes[1300:1500]), out[0][1300:])
	assert.True(t, strings.HasPrefix(out[1], string(runes[1300:1500])))
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog. "
	text := strings.TrimSpace(strings.Repeat(sentence, 40))
	segs := Split(text, 300, 50)
	require.Greater(t, len(segs), 1)
	for _, seg := range segs[:len(segs)-1] {
		assert.LessOrEqual(t, len([]rune(seg)), 300)
		// With sentence boundaries available no segment ends mid-word.
		assert.True(t, strings.HasSuffix(seg, ". "), "segment should end at a sentence boundary: %q", seg[len(seg)-20:])
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Some paragraph with words.\n\nAnother paragraph follows here. ", 60)
	a := Split(text, 400, 80)
	b := Split(text, 400, 80)
	require.Equal(t, a, b)

	pa, ca := SplitHierarchical(text, 400, 80, 120, 20)
	pb, cb := SplitHierarchical(text, 400, 80, 120, 20)
	assert.Equal(t, pa, pb)
	assert.Equal(t, ca, cb)
}

func TestSplitHierarchicalParentIDs(t *testing.T) {
	text := strings.Repeat("abcdefghij", 300)
	parents, children := SplitHierarchical(text, 1500, 200, 500, 100)

	require.Len(t, parents, 2)
	assert.Equal(t, 0, parents[0].ParentID)
	assert.Equal(t, 1, parents[1].ParentID)
	require.NotEmpty(t, children)
}

func TestSplitHierarchicalChildInvariant(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("Every contract has terms. Some terms are implied by law. ", 120))
	parents, children := SplitHierarchical(text, 1500, 200, 500, 100)

	byID := make(map[int]string, len(parents))
	for _, p := range parents {
		byID[p.ParentID] = p.Text
	}
	for _, c := range children {
		parentText, ok := byID[c.ParentID]
		require.True(t, ok, "child references unknown parent %d", c.ParentID)
		assert.True(t, strings.Contains(parentText, c.Text),
			"child text must be a substring of its parent's text")
	}
}

func TestSplitHierarchicalEmpty(t *testing.T) {
	parents, children := SplitHierarchical("", 1500, 200, 500, 100)
	assert.Empty(t, parents)
	assert.Empty(t, children)
}

func TestSplitSegmentsCoverWholeText(t *testing.T) {
	// 2500 runes without boundaries: hard cuts land at fixed positions, so
	// the segment sequence is fully predictable and covers the whole text.
	text := strings.Repeat("0123456789", 250)
	segs := Split(text, 700, 100)
	want := []string{
		text[0:700],
		text[600:1300],
		text[1200:1900],
		text[1800:2500],
	}
	assert.Equal(t, want, segs)
}
