package pdfwrite

// lineHeightFactor converts a font size to its line height.
const lineHeightFactor = 1.2

// minFontSize is the auto-shrink floor.
const minFontSize = 6.0

// shrinkStep is the auto-shrink decrement.
const shrinkStep = 0.5

// wrapText breaks text into lines that fit maxWidth at the given size.
// It accumulates character by character, which handles CJK text with no
// word boundaries; embedded newlines force breaks. A line is committed
// when the next character would overflow and the line is non-empty.
func wrapText(text string, f *embeddedFont, size, maxWidth float64) []string {
	var lines []string
	var current []rune
	currentWidth := 0.0

	for _, r := range text {
		if r == '\n' {
			lines = append(lines, string(current))
			current = current[:0]
			currentWidth = 0
			continue
		}

		w := f.charWidth(r, size)
		if currentWidth+w > maxWidth && len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
			currentWidth = 0
		}
		current = append(current, r)
		currentWidth += w
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}

	return lines
}

// fitText shrinks the font size from target until the wrapped text fits
// the available height or the floor is reached, then returns the final
// wrap. A single character always fits because the first character of a
// line is committed regardless of width.
func fitText(text string, f *embeddedFont, target, availWidth, availHeight float64) (float64, []string) {
	size := target
	for size > minFontSize {
		lines := wrapText(text, f, size, availWidth)
		if float64(len(lines))*size*lineHeightFactor <= availHeight {
			return size, lines
		}
		size -= shrinkStep
	}

	if size < minFontSize {
		size = minFontSize
	}
	return size, wrapText(text, f, size, availWidth)
}
