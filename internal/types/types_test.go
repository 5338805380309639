package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutClassNames(t *testing.T) {
	expected := []string{
		"title", "plain_text", "abandon", "figure", "figure_caption",
		"table", "table_caption", "table_footnote", "isolate_formula",
		"formula_caption",
	}
	for i, name := range expected {
		assert.Equal(t, name, LayoutClass(i).String())
	}

	// Out-of-range IDs default to plain_text.
	assert.Equal(t, "plain_text", LayoutClass(42).String())
	assert.Equal(t, "plain_text", LayoutClass(-1).String())
}

func TestTranslatableSubset(t *testing.T) {
	translatable := map[LayoutClass]bool{
		ClassTitle:          true,
		ClassPlainText:      true,
		ClassFigureCaption:  true,
		ClassTableCaption:   true,
		ClassTableFootnote:  true,
		ClassFormulaCaption: true,
	}
	for c := LayoutClass(0); c < NumLayoutClasses; c++ {
		assert.Equal(t, translatable[c], c.Translatable(), "class %s", c)
	}
}

func TestBodyClassExcludesTitle(t *testing.T) {
	assert.False(t, ClassTitle.BodyClass())
	assert.True(t, ClassPlainText.BodyClass())
	assert.False(t, ClassFigure.BodyClass())
}

func TestImageBBoxContains(t *testing.T) {
	b := ImageBBox{X: 10, Y: 20, Width: 100, Height: 50}

	assert.True(t, b.Contains(50, 40))
	// Inclusive on all sides.
	assert.True(t, b.Contains(10, 20))
	assert.True(t, b.Contains(110, 70))
	assert.False(t, b.Contains(9.99, 40))
	assert.False(t, b.Contains(50, 70.01))
}

func TestPDFBBoxOverlaps(t *testing.T) {
	a := PDFBBox{X: 0, Y: 0, Width: 10, Height: 10}

	assert.True(t, a.Overlaps(PDFBBox{X: 5, Y: 5, Width: 10, Height: 10}))
	assert.False(t, a.Overlaps(PDFBBox{X: 20, Y: 20, Width: 5, Height: 5}))
	// Strict inequality: edge contact does not overlap.
	assert.False(t, a.Overlaps(PDFBBox{X: 10, Y: 0, Width: 10, Height: 10}))
	assert.False(t, a.Overlaps(PDFBBox{X: 0, Y: 10, Width: 10, Height: 10}))
}

func TestUsageAdd(t *testing.T) {
	var total TranslatorUsage
	total.Add(TranslatorUsage{InputTokens: 10, OutputTokens: 5, TotalCost: 0.01})
	total.Add(TranslatorUsage{InputTokens: 3, OutputTokens: 2, TotalCost: 0.005})

	assert.Equal(t, 13, total.InputTokens)
	assert.Equal(t, 7, total.OutputTokens)
	assert.InDelta(t, 0.015, total.TotalCost, 1e-9)
}

func TestTranslateError(t *testing.T) {
	cause := errors.New("boom")
	err := NewErrorWithDetails(ErrRenderFailed, "render failed", "page 3", cause)

	assert.Equal(t, "render failed: page 3", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrRenderFailed, KindOf(err))
	assert.False(t, IsCancelled(err))
}

func TestIsCancelled(t *testing.T) {
	assert.True(t, IsCancelled(NewCancelled()))
	assert.False(t, IsCancelled(errors.New("other")))
	assert.False(t, IsCancelled(nil))
}
