// Package types defines the shared data model of the translation pipeline:
// bounding boxes in their two coordinate spaces, detected layout boxes,
// positioned text blocks, translatable regions and usage accounting.
package types

// ImageBBox is an axis-aligned rectangle in image-pixel space:
// origin top-left, y grows downward.
type ImageBBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point (px, py) lies inside the box,
// inclusive on all sides.
func (b ImageBBox) Contains(px, py float64) bool {
	return px >= b.X && px <= b.X+b.Width && py >= b.Y && py <= b.Y+b.Height
}

// PDFBBox is an axis-aligned rectangle in PDF-point space:
// origin bottom-left, y grows upward.
type PDFBBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlaps reports whether two boxes overlap with positive area.
// Edge contact does not count as overlap.
func (b PDFBBox) Overlaps(o PDFBBox) bool {
	return b.X < o.X+o.Width && b.X+b.Width > o.X &&
		b.Y < o.Y+o.Height && b.Y+b.Height > o.Y
}

// LayoutClass identifies the structural class of a detected region.
type LayoutClass int

// Class IDs in model declaration order.
const (
	ClassTitle LayoutClass = iota
	ClassPlainText
	ClassAbandon
	ClassFigure
	ClassFigureCaption
	ClassTable
	ClassTableCaption
	ClassTableFootnote
	ClassIsolateFormula
	ClassFormulaCaption

	NumLayoutClasses = 10
)

var classNames = [NumLayoutClasses]string{
	"title",
	"plain_text",
	"abandon",
	"figure",
	"figure_caption",
	"table",
	"table_caption",
	"table_footnote",
	"isolate_formula",
	"formula_caption",
}

// String returns the canonical class name. Out-of-range IDs map to
// plain_text, matching the detector's fallback.
func (c LayoutClass) String() string {
	if c < 0 || int(c) >= NumLayoutClasses {
		return classNames[ClassPlainText]
	}
	return classNames[c]
}

// Translatable reports whether text inside a region of this class should
// be translated.
func (c LayoutClass) Translatable() bool {
	switch c {
	case ClassTitle, ClassPlainText, ClassFigureCaption,
		ClassTableCaption, ClassTableFootnote, ClassFormulaCaption:
		return true
	default:
		return false
	}
}

// BodyClass reports whether the class contributes to the page's uniform
// body font size (everything translatable except titles).
func (c LayoutClass) BodyClass() bool {
	return c.Translatable() && c != ClassTitle
}

// LayoutBox is one detection produced by the layout model.
// The bbox is in image-pixel space of the rasterized page.
type LayoutBox struct {
	BBox       ImageBBox   `json:"bbox"`
	ClassID    LayoutClass `json:"class_id"`
	ClassName  string      `json:"class_name"`
	Confidence float64     `json:"confidence"`
}

// TextBlock is one positioned text run extracted from a page.
// Position is in PDF points with bottom-left origin.
type TextBlock struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"font_size"`
	FontName string  `json:"font_name"`
}

// TranslatableRegion pairs a layout box with the text blocks whose centers
// fall inside it, in reading order. PDFBBox is computed from the matched
// text blocks, not from the detector box.
type TranslatableRegion struct {
	LayoutBox  LayoutBox   `json:"layout_box"`
	TextBlocks []TextBlock `json:"text_blocks"`
	FullText   string      `json:"full_text"`
	PDFBBox    PDFBBox     `json:"pdf_bbox"`
}

// TranslatedRegion extends a TranslatableRegion with its translation.
// An empty TranslatedText still gets an erasure rectangle but no glyphs.
type TranslatedRegion struct {
	TranslatableRegion
	TranslatedText string `json:"translated_text"`
}

// PageRegions maps a zero-based page index to its translated regions.
// Pages not selected by the caller do not appear.
type PageRegions map[int][]TranslatedRegion

// TranslatorUsage accumulates token and cost accounting across all batches
// of a run. All fields are zero for the non-LLM translator.
type TranslatorUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// Add accumulates another usage value into u.
func (u *TranslatorUsage) Add(o TranslatorUsage) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.TotalCost += o.TotalCost
}

// ProgressEvent is emitted to the run's progress callback. TotalPages is
// the count of pages selected for processing, not the document total.
type ProgressEvent struct {
	Stage       string  `json:"stage"`
	CurrentPage int     `json:"current_page"`
	TotalPages  int     `json:"total_pages"`
	Percent     float64 `json:"percent"`
}

// ProgressFunc consumes progress events. Implementations must be safe to
// call from a background worker.
type ProgressFunc func(ProgressEvent)
