// Package extract pulls positioned text runs out of PDF pages.
package extract

import (
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"pdf-translator/internal/types"
)

// defaultFontSize stands in when the backend reports no usable size.
const defaultFontSize = 10.0

// gap thresholds relative to font size: wordGapFactor inserts a space
// inside a run, runGapFactor starts a new block (column or table gap).
const (
	wordGapFactor = 0.25
	runGapFactor  = 1.5
)

// PageBlocks extracts the positioned text blocks of one page. Blocks whose
// text is empty after trimming are never emitted. Positions are PDF points
// with bottom-left origin, y at the glyph baseline.
func PageBlocks(page pdf.Page) ([]types.TextBlock, error) {
	if page.V.IsNull() {
		return nil, nil
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, types.NewError(types.ErrExtractionFailed, "cannot read page text", err)
	}

	var blocks []types.TextBlock
	for _, row := range rows {
		blocks = append(blocks, rowToBlocks(row.Content)...)
	}
	return blocks, nil
}

// rowToBlocks splits one visual row of characters into text runs. A gap
// wider than runGapFactor of the font size (and never less than 12
// points) separates runs, which keeps column neighbours from merging
// into one block.
func rowToBlocks(chars []pdf.Text) []types.TextBlock {
	var blocks []types.TextBlock
	var run []pdf.Text

	flush := func() {
		if b, ok := buildBlock(run); ok {
			blocks = append(blocks, b)
		}
		run = run[:0]
	}

	for _, ch := range chars {
		if ch.S == "" {
			continue
		}
		if len(run) > 0 {
			prev := run[len(run)-1]
			fs := prev.FontSize
			if fs <= 0 {
				fs = defaultFontSize
			}
			gap := ch.X - (prev.X + prev.W)
			threshold := fs * runGapFactor
			if threshold < 12 {
				threshold = 12
			}
			if gap > threshold {
				flush()
			}
		}
		run = append(run, ch)
	}
	flush()

	return blocks
}

// buildBlock assembles one run of characters into a TextBlock. Inter-char
// gaps above wordGapFactor of the font size become spaces, since many PDFs
// encode word breaks purely by positioning.
func buildBlock(run []pdf.Text) (types.TextBlock, bool) {
	if len(run) == 0 {
		return types.TextBlock{}, false
	}

	var sb strings.Builder
	minX, minY := run[0].X, run[0].Y
	maxX := run[0].X + run[0].W
	fontSize := 0.0
	fontName := run[0].Font

	for i, ch := range run {
		if i > 0 {
			prev := run[i-1]
			fs := prev.FontSize
			if fs <= 0 {
				fs = defaultFontSize
			}
			gap := ch.X - (prev.X + prev.W)
			if gap > fs*wordGapFactor && !endsWithSpace(sb.String()) && !startsWithSpace(ch.S) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(ch.S)

		if ch.X < minX {
			minX = ch.X
		}
		if ch.X+ch.W > maxX {
			maxX = ch.X + ch.W
		}
		if ch.Y < minY {
			minY = ch.Y
		}
		if ch.FontSize > fontSize {
			fontSize = ch.FontSize
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return types.TextBlock{}, false
	}
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}

	width := maxX - minX
	if width <= 0 {
		// Approximation is fine here: only the union bbox and the
		// center-point test depend on widths downstream.
		width = float64(len([]rune(text))) * fontSize * 0.5
	}

	return types.TextBlock{
		Text:     text,
		X:        minX,
		Y:        minY,
		Width:    width,
		Height:   fontSize,
		FontSize: fontSize,
		FontName: fontName,
	}, true
}

func endsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsSpace(rune(s[len(s)-1]))
}

func startsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsSpace(rune(s[0]))
}

// HasTextLayer reports whether the document exposes extractable text on
// its first pages. Scanned documents fail this check and cannot be
// translated.
func HasTextLayer(r *pdf.Reader, maxPages int) bool {
	pages := r.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	total := 0
	for n := 1; n <= pages; n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, ch := range content {
			if !unicode.IsSpace(ch) {
				total++
			}
		}
		if total > 50 {
			return true
		}
	}
	return total > 0
}
