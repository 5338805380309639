package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chars lays out a string as consecutive character items starting at x,
// the way the backend reports most text runs.
func chars(s string, x, y, fontSize float64) []pdf.Text {
	var out []pdf.Text
	w := fontSize * 0.5
	for _, r := range s {
		out = append(out, pdf.Text{
			Font:     "Times-Roman",
			FontSize: fontSize,
			X:        x,
			Y:        y,
			W:        w,
			S:        string(r),
		})
		x += w
	}
	return out
}

func TestRowToBlocksSingleRun(t *testing.T) {
	blocks := rowToBlocks(chars("Hello", 72, 700, 10))

	require.Len(t, blocks, 1)
	b := blocks[0]
	assert.Equal(t, "Hello", b.Text)
	assert.InDelta(t, 72, b.X, 1e-9)
	assert.InDelta(t, 700, b.Y, 1e-9)
	assert.InDelta(t, 10, b.FontSize, 1e-9)
	assert.InDelta(t, 10, b.Height, 1e-9)
	assert.InDelta(t, 25, b.Width, 1e-9) // 5 chars at half the font size
	assert.Equal(t, "Times-Roman", b.FontName)
}

func TestRowToBlocksSplitsOnColumnGap(t *testing.T) {
	left := chars("left", 72, 700, 10)
	right := chars("right", 300, 700, 10) // far beyond the run threshold
	blocks := rowToBlocks(append(left, right...))

	require.Len(t, blocks, 2)
	assert.Equal(t, "left", blocks[0].Text)
	assert.Equal(t, "right", blocks[1].Text)
}

func TestRowToBlocksKeepsWordsTogether(t *testing.T) {
	// A word gap (a third of the font size) stays inside one block and
	// becomes a space.
	a := chars("two", 72, 700, 12)
	b := chars("words", a[len(a)-1].X+a[len(a)-1].W+4, 700, 12)
	blocks := rowToBlocks(append(a, b...))

	require.Len(t, blocks, 1)
	assert.Equal(t, "two words", blocks[0].Text)
}

func TestRowToBlocksSkipsEmptyItems(t *testing.T) {
	items := chars("a", 72, 700, 10)
	items = append(items, pdf.Text{S: "", X: 80, Y: 700})

	blocks := rowToBlocks(items)
	require.Len(t, blocks, 1)
	assert.Equal(t, "a", blocks[0].Text)
}

func TestBuildBlockNeverEmitsWhitespaceOnly(t *testing.T) {
	_, ok := buildBlock(chars("   ", 72, 700, 10))
	assert.False(t, ok)

	_, ok = buildBlock(nil)
	assert.False(t, ok)
}

func TestBuildBlockFontSizeFallback(t *testing.T) {
	run := chars("abc", 72, 700, 0) // backend reported no size
	for i := range run {
		run[i].W = 0
	}

	b, ok := buildBlock(run)
	require.True(t, ok)
	assert.InDelta(t, defaultFontSize, b.FontSize, 1e-9)
	assert.InDelta(t, defaultFontSize, b.Height, 1e-9)
	// Width falls back to len(text) * fontSize * 0.5.
	assert.InDelta(t, 3*defaultFontSize*0.5, b.Width, 1e-9)
}

func TestBuildBlockTracksBounds(t *testing.T) {
	run := chars("wide", 100, 650, 14)
	b, ok := buildBlock(run)
	require.True(t, ok)

	last := run[len(run)-1]
	assert.InDelta(t, 100, b.X, 1e-9)
	assert.InDelta(t, last.X+last.W-100, b.Width, 1e-9)
}
