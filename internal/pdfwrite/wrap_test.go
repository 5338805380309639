package pdfwrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testFont measures every character at half the font size, which is the
// documented fallback metric.
func testFont() *embeddedFont { return helveticaFallback("TrF0") }

func TestWrapTextFitsWithinWidth(t *testing.T) {
	f := testFont()
	// 10 chars at size 10 -> 5pt each -> 50pt total; 20pt lines hold 4.
	lines := wrapText("aaaaaaaaaa", f, 10, 20)

	require.Len(t, lines, 3)
	assert.Equal(t, []string{"aaaa", "aaaa", "aa"}, lines)
}

func TestWrapTextNewlinesForceBreaks(t *testing.T) {
	f := testFont()
	lines := wrapText("ab\ncd", f, 10, 100)
	assert.Equal(t, []string{"ab", "cd"}, lines)
}

func TestWrapTextSingleCharPerLineWhenNarrow(t *testing.T) {
	f := testFont()
	// Each char is wider than the line; the first char of a line is
	// committed regardless, so wrapping still terminates.
	lines := wrapText("abc", f, 10, 2)
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestWrapTextEmpty(t *testing.T) {
	assert.Empty(t, wrapText("", testFont(), 10, 100))
}

func TestFitTextKeepsTargetWhenItFits(t *testing.T) {
	f := testFont()
	size, lines := fitText("short", f, 12, 200, 100)
	assert.InDelta(t, 12, size, 1e-9)
	require.Len(t, lines, 1)
}

func TestFitTextShrinksUntilFit(t *testing.T) {
	f := testFont()
	// 40 chars at size 12 need 240pt of width; in an 60x30 box the text
	// must shrink to fit three-ish lines.
	text := strings.Repeat("x", 40)
	size, lines := fitText(text, f, 12, 60, 30)

	assert.Less(t, size, 12.0)
	assert.GreaterOrEqual(t, size, minFontSize)
	assert.LessOrEqual(t, float64(len(lines))*size*lineHeightFactor, 30.0+1e-9)
}

// The shrink loop terminates at the floor even when content can never fit.
func TestFitTextFloor(t *testing.T) {
	f := testFont()
	text := strings.Repeat("y", 5000)
	size, _ := fitText(text, f, 24, 30, 10)
	assert.InDelta(t, minFontSize, size, 1e-9)
}

// A single-character input always fits.
func TestFitTextSingleChar(t *testing.T) {
	f := testFont()
	size, lines := fitText("字", f, 10, 8, 13)
	require.Len(t, lines, 1)
	assert.GreaterOrEqual(t, size, minFontSize)
}

func TestFitTextTargetBelowFloorClamps(t *testing.T) {
	f := testFont()
	size, _ := fitText("tiny", f, 4, 100, 100)
	assert.InDelta(t, minFontSize, size, 1e-9)
}
