// Package raster renders PDF pages to fixed-budget RGB pixel buffers for
// the layout detector.
package raster

import (
	"fmt"
	"image"

	gopdf "github.com/VantageDataChat/GoPDF2"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// LongestSide is the pixel budget for the longer page dimension. It matches
// the detector's input resolution.
const LongestSide = 1024

// PageImage is one rendered page: tightly packed 3-byte RGB, row-major,
// top-left origin. Scale converts PDF points to image pixels for this page.
type PageImage struct {
	RGB    []byte
	Width  int
	Height int
	Scale  float64
}

// ScaleFor returns the PDF-points-to-pixels scale for a page of the given
// size in points.
func ScaleFor(pdfWidth, pdfHeight float64) float64 {
	longest := pdfWidth
	if pdfHeight > longest {
		longest = pdfHeight
	}
	return float64(LongestSide) / longest
}

// RenderPage rasterizes one page of the document. pageIndex is zero-based;
// pdfWidth/pdfHeight are the page's media box size in points at scale 1.0.
func RenderPage(pdfData []byte, pageIndex int, pdfWidth, pdfHeight float64) (*PageImage, error) {
	if pdfWidth <= 0 || pdfHeight <= 0 {
		return nil, types.NewPageError(types.ErrRenderFailed,
			fmt.Sprintf("page %d has invalid size %gx%g", pageIndex+1, pdfWidth, pdfHeight),
			pageIndex+1, nil)
	}

	scale := ScaleFor(pdfWidth, pdfHeight)
	width := int(pdfWidth * scale)
	height := int(pdfHeight * scale)

	img, err := gopdf.RenderPageToImage(pdfData, pageIndex, gopdf.RenderOption{
		DPI: 72.0 * scale,
	})
	if err != nil {
		return nil, types.NewPageError(types.ErrRenderFailed,
			fmt.Sprintf("cannot render page %d", pageIndex+1), pageIndex+1, err)
	}

	rgb := resampleRGB(img, width, height)

	logger.Debug("page rasterized",
		logger.Int("page", pageIndex+1),
		logger.Int("width", width),
		logger.Int("height", height),
		logger.Float64("scale", scale))

	return &PageImage{RGB: rgb, Width: width, Height: height, Scale: scale}, nil
}

// resampleRGB samples the source image into a tightly packed RGB buffer of
// the exact target size by nearest neighbor. The renderer rounds dimensions
// up; the contract floors them, so the two can differ by one pixel.
func resampleRGB(img image.Image, width, height int) []byte {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	rgb := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		srcY := y * srcH / height
		for x := 0; x < width; x++ {
			srcX := x * srcW / width
			r, g, b, _ := img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY).RGBA()
			i := (y*width + x) * 3
			rgb[i] = byte(r >> 8)
			rgb[i+1] = byte(g >> 8)
			rgb[i+2] = byte(b >> 8)
		}
	}
	return rgb
}
