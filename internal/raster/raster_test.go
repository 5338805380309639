package raster

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaleFor(t *testing.T) {
	// US letter portrait: the height is the longest side.
	s := ScaleFor(612, 792)
	assert.InDelta(t, 1024.0/792.0, s, 1e-12)

	// Landscape flips the axis.
	s = ScaleFor(792, 612)
	assert.InDelta(t, 1024.0/792.0, s, 1e-12)
}

// The longest side of the rendered image always equals the budget and
// both dimensions floor the scaled page size.
func TestDimensionLaw(t *testing.T) {
	cases := [][2]float64{{612, 792}, {595.276, 841.89}, {792, 612}, {500, 500}}
	for _, c := range cases {
		w, h := c[0], c[1]
		scale := ScaleFor(w, h)
		width := int(w * scale)
		height := int(h * scale)

		longest := width
		if height > longest {
			longest = height
		}
		assert.Equal(t, LongestSide, longest, "page %gx%g", w, h)
		assert.Equal(t, int(math.Floor(w*scale)), width)
		assert.Equal(t, int(math.Floor(h*scale)), height)
	}
}

func TestResampleRGBPacking(t *testing.T) {
	// 2x2 source with distinct quadrant colors, resampled to 4x4.
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{255, 0, 0, 255})
	src.Set(1, 0, color.RGBA{0, 255, 0, 255})
	src.Set(0, 1, color.RGBA{0, 0, 255, 255})
	src.Set(1, 1, color.RGBA{255, 255, 255, 255})

	rgb := resampleRGB(src, 4, 4)
	require.Len(t, rgb, 4*4*3)

	at := func(x, y int) [3]byte {
		i := (y*4 + x) * 3
		return [3]byte{rgb[i], rgb[i+1], rgb[i+2]}
	}

	assert.Equal(t, [3]byte{255, 0, 0}, at(0, 0))
	assert.Equal(t, [3]byte{0, 255, 0}, at(3, 0))
	assert.Equal(t, [3]byte{0, 0, 255}, at(0, 3))
	assert.Equal(t, [3]byte{255, 255, 255}, at(3, 3))
}

func TestRenderPageRejectsInvalidSize(t *testing.T) {
	_, err := RenderPage(nil, 0, 0, 792)
	require.Error(t, err)
}
