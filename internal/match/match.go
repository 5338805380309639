// Package match intersects detected layout boxes with extracted text
// blocks and assembles translatable regions.
package match

import (
	"math"
	"sort"
	"strings"

	"pdf-translator/internal/types"
)

// BBoxMargin expands the tight text union by this many PDF points on
// every side, so erasure rectangles fully cover the original ink.
const BBoxMargin = 2.0

// unknownLineTolerance is the same-line tolerance when a block carries no
// font size.
const unknownLineTolerance = 10.0

// BlockCenter returns the image-space center of a PDF-space text block.
// pageHeight is the page height in PDF points at scale 1.0, scale the
// PDF-points-to-pixels factor of the rasterized page.
func BlockCenter(b types.TextBlock, pageHeight, scale float64) (float64, float64) {
	imgX := b.X * scale
	imgY := (pageHeight - b.Y - b.Height) * scale
	return imgX + b.Width*scale/2, imgY + b.Height*scale/2
}

// Regions matches text blocks to translatable layout boxes. A block
// belongs to every box whose interior (inclusive of edges) contains its
// transformed center; overlapping boxes each get their own copy and are
// treated independently downstream.
func Regions(layoutBoxes []types.LayoutBox, textBlocks []types.TextBlock, pageHeight, scale float64) []types.TranslatableRegion {
	var regions []types.TranslatableRegion

	for _, box := range layoutBoxes {
		if !box.ClassID.Translatable() {
			continue
		}

		var matched []types.TextBlock
		for _, block := range textBlocks {
			cx, cy := BlockCenter(block, pageHeight, scale)
			if box.BBox.Contains(cx, cy) {
				matched = append(matched, block)
			}
		}
		if len(matched) == 0 {
			continue
		}

		SortReadingOrder(matched, pageHeight)

		texts := make([]string, len(matched))
		for i, b := range matched {
			texts[i] = b.Text
		}
		fullText := strings.Join(texts, " ")
		if strings.TrimSpace(fullText) == "" {
			continue
		}

		regions = append(regions, types.TranslatableRegion{
			LayoutBox:  box,
			TextBlocks: matched,
			FullText:   fullText,
			PDFBBox:    unionBBox(matched),
		})
	}

	return regions
}

// SortReadingOrder sorts blocks top-to-bottom, left-to-right. Two blocks
// whose top-down y positions differ by less than the left block's font
// size are on the same visual line and order by x.
func SortReadingOrder(blocks []types.TextBlock, pageHeight float64) {
	sort.SliceStable(blocks, func(i, j int) bool {
		a, b := blocks[i], blocks[j]
		ay := pageHeight - a.Y
		by := pageHeight - b.Y

		tolerance := a.FontSize
		if tolerance <= 0 {
			tolerance = unknownLineTolerance
		}
		if math.Abs(ay-by) < tolerance {
			return a.X < b.X
		}
		return ay < by
	})
}

// unionBBox computes the tight PDF-space union of the blocks expanded by
// BBoxMargin. The box derives from the matched text, not from the
// detector box, which keeps erasure aligned with the real ink.
func unionBBox(blocks []types.TextBlock) types.PDFBBox {
	minX := blocks[0].X
	minY := blocks[0].Y
	maxX := blocks[0].X + blocks[0].Width
	maxY := blocks[0].Y + blocks[0].Height

	for _, b := range blocks[1:] {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.X+b.Width)
		maxY = math.Max(maxY, b.Y+b.Height)
	}

	return types.PDFBBox{
		X:      minX - BBoxMargin,
		Y:      minY - BBoxMargin,
		Width:  maxX - minX + 2*BBoxMargin,
		Height: maxY - minY + 2*BBoxMargin,
	}
}
