package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-translator/internal/types"
)

// identityLetterbox maps model space 1:1 onto a 1024x1024 source image.
var identityLetterbox = Letterbox{Scale: 1, PadX: 0, PadY: 0, NewW: InputSize, NewH: InputSize}

func TestDecodePostNMS(t *testing.T) {
	// Two rows: one confident title, one below the threshold.
	data := []float32{
		100, 50, 300, 120, 0.9, 0,
		400, 400, 500, 450, 0.1, 1,
	}
	boxes := decodeDetections(data, []int64{1, 2, 6}, identityLetterbox)

	require.Len(t, boxes, 1)
	b := boxes[0]
	assert.Equal(t, types.ClassTitle, b.ClassID)
	assert.Equal(t, "title", b.ClassName)
	assert.InDelta(t, 0.9, b.Confidence, 1e-6)
	assert.InDelta(t, 100, b.BBox.X, 1e-6)
	assert.InDelta(t, 50, b.BBox.Y, 1e-6)
	assert.InDelta(t, 200, b.BBox.Width, 1e-6)
	assert.InDelta(t, 70, b.BBox.Height, 1e-6)
}

func TestDecodePostNMSUnletterboxes(t *testing.T) {
	lb := Letterbox{Scale: 0.5, PadX: 100, PadY: 50, NewW: 824, NewH: 924}
	data := []float32{200, 150, 400, 250, 0.8, 1}

	boxes := decodeDetections(data, []int64{1, 1, 6}, lb)
	require.Len(t, boxes, 1)

	b := boxes[0].BBox
	assert.InDelta(t, (200-100)/0.5, b.X, 1e-6)
	assert.InDelta(t, (150-50)/0.5, b.Y, 1e-6)
	assert.InDelta(t, 200/0.5, b.Width, 1e-6)
	assert.InDelta(t, 100/0.5, b.Height, 1e-6)
}

func TestDecodeRawTransposed(t *testing.T) {
	// [1, F, N] with F=14 (4 box fields + 10 classes), N=30 detections:
	// the trailing dimension exceeds the leading one, which is at most 20.
	// Feature-major layout: all cx values first, then all cy, and so on.
	const f, n = 14, 30
	data := make([]float32, f*n)
	set := func(field, det int, v float32) { data[field*n+det] = v }

	// Detection 0: centered box, class 4 (figure_caption) at 0.7.
	set(0, 0, 200) // cx
	set(1, 0, 100) // cy
	set(2, 0, 80)  // w
	set(3, 0, 40)  // h
	set(4+4, 0, 0.7)

	// Detection 1: below threshold everywhere.
	set(0, 1, 500)
	set(1, 1, 500)
	set(2, 1, 50)
	set(3, 1, 50)
	set(4+2, 1, 0.2)

	boxes := decodeDetections(data, []int64{1, f, n}, identityLetterbox)
	require.Len(t, boxes, 1)

	b := boxes[0]
	assert.Equal(t, types.ClassFigureCaption, b.ClassID)
	assert.InDelta(t, 0.7, b.Confidence, 1e-6)
	assert.InDelta(t, 160, b.BBox.X, 1e-6) // cx - w/2
	assert.InDelta(t, 80, b.BBox.Y, 1e-6)  // cy - h/2
	assert.InDelta(t, 80, b.BBox.Width, 1e-6)
	assert.InDelta(t, 40, b.BBox.Height, 1e-6)
}

func TestDecodeRawUntransposed(t *testing.T) {
	// [1, N, F] with N=30 detections: the leading dimension exceeds 20,
	// so the decoder must not treat it as the feature axis.
	const f, n = 14, 30
	data := make([]float32, n*f)
	// Detection 7: class 1 (plain_text) at 0.5.
	row := data[7*f : 8*f]
	row[0], row[1], row[2], row[3] = 300, 400, 100, 60
	row[4+1] = 0.5

	boxes := decodeDetections(data, []int64{1, n, f}, identityLetterbox)
	require.Len(t, boxes, 1)
	assert.Equal(t, types.ClassPlainText, boxes[0].ClassID)
	assert.InDelta(t, 250, boxes[0].BBox.X, 1e-6)
	assert.InDelta(t, 370, boxes[0].BBox.Y, 1e-6)
}

func TestDecodeConfidenceFilter(t *testing.T) {
	// No emitted box may sit below the threshold.
	data := []float32{
		10, 10, 20, 20, 0.24, 0,
		10, 10, 20, 20, 0.25, 0,
	}
	boxes := decodeDetections(data, []int64{1, 2, 6}, identityLetterbox)
	require.Len(t, boxes, 1)
	assert.GreaterOrEqual(t, boxes[0].Confidence, float64(ConfidenceThreshold))
}

func TestDecodeOutOfRangeClassDefaultsToPlainText(t *testing.T) {
	data := []float32{10, 10, 20, 20, 0.9, 99}
	boxes := decodeDetections(data, []int64{1, 1, 6}, identityLetterbox)

	require.Len(t, boxes, 1)
	assert.Equal(t, types.ClassPlainText, boxes[0].ClassID)
	assert.Equal(t, "plain_text", boxes[0].ClassName)
}

func TestDecodeClampsNegativeOrigins(t *testing.T) {
	lb := Letterbox{Scale: 1, PadX: 50, PadY: 50, NewW: 924, NewH: 924}
	// Box origin falls outside the content region after un-padding.
	data := []float32{10, 20, 200, 220, 0.9, 1}

	boxes := decodeDetections(data, []int64{1, 1, 6}, lb)
	require.Len(t, boxes, 1)
	assert.GreaterOrEqual(t, boxes[0].BBox.X, 0.0)
	assert.GreaterOrEqual(t, boxes[0].BBox.Y, 0.0)
}

func TestDecodeRejectsMalformedShapes(t *testing.T) {
	assert.Nil(t, decodeDetections(nil, []int64{1, 0, 6}, identityLetterbox))
	assert.Nil(t, decodeDetections([]float32{1}, []int64{4}, identityLetterbox))
	// A raw head with fewer than 5 features has no class scores.
	assert.Nil(t, decodeDetections(make([]float32, 8), []int64{1, 2, 4}, identityLetterbox))
}
