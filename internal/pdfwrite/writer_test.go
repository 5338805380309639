package pdfwrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-translator/internal/types"
)

func bodyRegion(class types.LayoutClass, sizes ...float64) types.TranslatedRegion {
	blocks := make([]types.TextBlock, len(sizes))
	for i, s := range sizes {
		blocks[i] = types.TextBlock{Text: "t", FontSize: s}
	}
	return types.TranslatedRegion{
		TranslatableRegion: types.TranslatableRegion{
			LayoutBox:  types.LayoutBox{ClassID: class, ClassName: class.String()},
			TextBlocks: blocks,
		},
	}
}

func TestUniformBodySizeMedian(t *testing.T) {
	regions := []types.TranslatedRegion{
		bodyRegion(types.ClassPlainText, 9, 10, 11),
		bodyRegion(types.ClassFigureCaption, 8, 30),
	}
	// Sorted sizes: 8 9 10 11 30 -> median 10.
	assert.InDelta(t, 10, uniformBodySize(regions), 1e-9)
}

func TestUniformBodySizeIgnoresTitles(t *testing.T) {
	regions := []types.TranslatedRegion{
		bodyRegion(types.ClassTitle, 24, 24, 24, 24),
		bodyRegion(types.ClassPlainText, 10),
	}
	assert.InDelta(t, 10, uniformBodySize(regions), 1e-9)
}

func TestUniformBodySizeFallback(t *testing.T) {
	assert.InDelta(t, fallbackBodySize, uniformBodySize(nil), 1e-9)

	onlyTitle := []types.TranslatedRegion{bodyRegion(types.ClassTitle, 20)}
	assert.InDelta(t, fallbackBodySize, uniformBodySize(onlyTitle), 1e-9)
}

func TestMeanFontSize(t *testing.T) {
	r := bodyRegion(types.ClassTitle, 18, 22)
	assert.InDelta(t, 20, meanFontSize(r.TextBlocks), 1e-9)
	assert.InDelta(t, fallbackBodySize, meanFontSize(nil), 1e-9)
}

func TestDrawErasure(t *testing.T) {
	var sb strings.Builder
	drawErasure(&sb, types.PDFBBox{X: 10, Y: 20, Width: 100, Height: 50})

	out := sb.String()
	assert.Contains(t, out, "1 g")
	assert.Contains(t, out, "10.00 20.00 100.00 50.00 re f")
}

func TestDrawRegionTextSkipsOverflowLines(t *testing.T) {
	region := types.TranslatedRegion{
		TranslatableRegion: types.TranslatableRegion{
			LayoutBox: types.LayoutBox{ClassID: types.ClassPlainText},
			PDFBBox:   types.PDFBBox{X: 0, Y: 0, Width: 40, Height: 20},
		},
		// Far more text than the box can hold even at the size floor.
		TranslatedText: strings.Repeat("z", 2000),
	}

	var sb strings.Builder
	drawRegionText(&sb, region, testFont(), 10)

	drawn := strings.Count(sb.String(), "Tj")
	// availH = 20 - 2*2 = 16; at the floor of 6 the line height is 7.2,
	// and baselines below the box are skipped.
	assert.Greater(t, drawn, 0)
	assert.LessOrEqual(t, drawn, 2)
}

func TestDrawRegionTextEmptyBoxDrawsNothing(t *testing.T) {
	region := types.TranslatedRegion{
		TranslatableRegion: types.TranslatableRegion{
			PDFBBox: types.PDFBBox{X: 0, Y: 0, Width: 3, Height: 3},
		},
		TranslatedText: "text",
	}

	var sb strings.Builder
	drawRegionText(&sb, region, testFont(), 10)
	assert.Empty(t, sb.String())
}

func TestShowTextFallbackEscapes(t *testing.T) {
	f := testFont()
	out := f.showText(`a(b)c\d`)

	assert.True(t, strings.HasPrefix(out, "("))
	assert.True(t, strings.HasSuffix(out, ")"))
	assert.Contains(t, out, `\(`)
	assert.Contains(t, out, `\)`)
	assert.Contains(t, out, `\\`)
}

func TestEscapeLiteralReplacesNonASCII(t *testing.T) {
	assert.Equal(t, "??", escapeLiteral("你好"))
	assert.Equal(t, "plain", escapeLiteral("plain"))
}

func TestHelveticaFallbackMetrics(t *testing.T) {
	f := helveticaFallback("TrF0")
	require.True(t, f.fallback)
	assert.InDelta(t, 5, f.charWidth('x', 10), 1e-9)
	assert.InDelta(t, 5, f.charWidth('字', 10), 1e-9)
}
