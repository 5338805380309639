package layout

import "math"

// InputSize is the square side of the model input tensor.
const InputSize = 1024

// padValue is the letterbox fill, the conventional YOLO 114 gray.
const padValue = float32(114.0 / 255.0)

// Letterbox records the geometry of a letterboxed image so detections can
// be mapped back to source-image coordinates.
type Letterbox struct {
	Scale float64
	PadX  int
	PadY  int
	NewW  int
	NewH  int
}

// letterboxImage resamples a tightly packed RGB image into a [3,1024,1024]
// channel-first float tensor, preserving aspect ratio and centering the
// content inside uniform padding. Channels are normalized to 0..1.
func letterboxImage(rgb []byte, width, height int) ([]float32, Letterbox) {
	s := math.Min(float64(InputSize)/float64(width), float64(InputSize)/float64(height))
	newW := int(math.Round(float64(width) * s))
	newH := int(math.Round(float64(height) * s))
	padX := (InputSize - newW) / 2
	padY := (InputSize - newH) / 2

	data := make([]float32, 3*InputSize*InputSize)
	for i := range data {
		data[i] = padValue
	}

	const plane = InputSize * InputSize
	for y := 0; y < newH; y++ {
		srcY := y * height / newH
		rowBase := (padY + y) * InputSize
		for x := 0; x < newW; x++ {
			srcX := x * width / newW
			src := (srcY*width + srcX) * 3
			dst := rowBase + padX + x
			data[dst] = float32(rgb[src]) / 255.0
			data[plane+dst] = float32(rgb[src+1]) / 255.0
			data[2*plane+dst] = float32(rgb[src+2]) / 255.0
		}
	}

	return data, Letterbox{Scale: s, PadX: padX, PadY: padY, NewW: newW, NewH: newH}
}

// unmap converts a point from model (letterboxed) space back to
// source-image pixel space.
func (lb Letterbox) unmap(x, y float64) (float64, float64) {
	return (x - float64(lb.PadX)) / lb.Scale, (y - float64(lb.PadY)) / lb.Scale
}
