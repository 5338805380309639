// Package pdfwrite re-emits a PDF with translated text: the original
// content stays intact underneath opaque white erasure rectangles and
// freshly drawn glyphs from an embedded font.
package pdfwrite

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// fallbackBodySize is used when a page has no body-class text to take a
// median over.
const fallbackBodySize = 10.0

// Resource names for the fonts added to page font dicts.
const (
	regularResName = "TrF0"
	boldResName    = "TrF1"
)

// Options configures a write.
type Options struct {
	// RegularFontPath is the CJK-capable TTF used for body text. Required;
	// an unreadable font degrades to Helvetica with a warning.
	RegularFontPath string
	// BoldFontPath is an optional TTF for titles.
	BoldFontPath string
}

// WriteTranslated reopens the original document, overlays every region's
// erasure rectangle and translated text, scrubs overlapping link
// annotations and serializes the result to outputPath atomically.
func WriteTranslated(inputPath, outputPath string, pages types.PageRegions, opts Options) error {
	ctx, err := api.ReadContextFile(inputPath)
	if err != nil {
		return types.NewError(types.ErrWriteFailed, "cannot reopen original document", err)
	}

	w := &writer{ctx: ctx}
	w.loadFonts(opts)

	pageNumbers := make([]int, 0, len(pages))
	for idx := range pages {
		pageNumbers = append(pageNumbers, idx+1)
	}
	sort.Ints(pageNumbers)

	for _, pageNr := range pageNumbers {
		if pageNr < 1 || pageNr > ctx.PageCount {
			continue
		}
		regions := pages[pageNr-1]
		if len(regions) == 0 {
			continue
		}
		if err := w.writePage(pageNr, regions); err != nil {
			return err
		}
	}

	if err := w.embedFonts(); err != nil {
		return err
	}

	return writeAtomically(ctx, outputPath)
}

type pendingFontUse struct {
	pageNr int
	font   *embeddedFont
}

type writer struct {
	ctx     *model.Context
	regular *embeddedFont
	bold    *embeddedFont

	// fontUses defers resource-dict patching until the font refs exist.
	fontUses []pendingFontUse
}

// loadFonts prepares the regular and optional bold fonts. Embed failure
// is the one degradation the writer tolerates: it falls back to Helvetica
// so a missing font file does not fail every CJK output.
func (w *writer) loadFonts(opts Options) {
	regular, err := loadFont(opts.RegularFontPath, regularResName)
	if err != nil {
		logger.Warn("cannot load regular font, falling back to Helvetica",
			logger.String("path", opts.RegularFontPath), logger.Err(err))
		regular = helveticaFallback(regularResName)
	}
	w.regular = regular

	if opts.BoldFontPath != "" {
		bold, err := loadFont(opts.BoldFontPath, boldResName)
		if err != nil {
			logger.Warn("cannot load bold font, titles use the regular font",
				logger.String("path", opts.BoldFontPath), logger.Err(err))
		} else {
			w.bold = bold
		}
	}
}

// fontFor picks the title font when one is available.
func (w *writer) fontFor(class types.LayoutClass) *embeddedFont {
	if class == types.ClassTitle && w.bold != nil {
		return w.bold
	}
	return w.regular
}

// writePage overlays one page's regions and scrubs its link annotations.
func (w *writer) writePage(pageNr int, regions []types.TranslatedRegion) error {
	bodySize := uniformBodySize(regions)

	var content strings.Builder
	usedFonts := map[*embeddedFont]bool{}

	for _, region := range regions {
		drawErasure(&content, region.PDFBBox)
		if strings.TrimSpace(region.TranslatedText) == "" {
			continue
		}

		f := w.fontFor(region.LayoutBox.ClassID)
		usedFonts[f] = true

		target := bodySize
		if region.LayoutBox.ClassID == types.ClassTitle {
			target = meanFontSize(region.TextBlocks)
		}
		drawRegionText(&content, region, f, target)
	}

	if err := w.appendContent(pageNr, content.String()); err != nil {
		return err
	}
	for f := range usedFonts {
		w.fontUses = append(w.fontUses, pendingFontUse{pageNr: pageNr, font: f})
	}

	if err := w.scrubLinkAnnotations(pageNr, regions); err != nil {
		return err
	}

	logger.Debug("page overlaid",
		logger.Int("page", pageNr),
		logger.Int("regions", len(regions)),
		logger.Float64("bodySize", bodySize))

	return nil
}

// uniformBodySize is the median original font size across all text blocks
// of body-class regions on the page.
func uniformBodySize(regions []types.TranslatedRegion) float64 {
	var sizes []float64
	for _, region := range regions {
		if !region.LayoutBox.ClassID.BodyClass() {
			continue
		}
		for _, b := range region.TextBlocks {
			sizes = append(sizes, b.FontSize)
		}
	}
	if len(sizes) == 0 {
		return fallbackBodySize
	}

	sort.Float64s(sizes)
	n := len(sizes)
	if n%2 == 1 {
		return sizes[n/2]
	}
	return (sizes[n/2-1] + sizes[n/2]) / 2
}

// meanFontSize averages the region's original block sizes (title sizing).
func meanFontSize(blocks []types.TextBlock) float64 {
	if len(blocks) == 0 {
		return fallbackBodySize
	}
	sum := 0.0
	for _, b := range blocks {
		sum += b.FontSize
	}
	return sum / float64(len(blocks))
}

// drawErasure emits an opaque white rectangle over the region's bbox.
func drawErasure(sb *strings.Builder, b types.PDFBBox) {
	fmt.Fprintf(sb, "q 1 g %.2f %.2f %.2f %.2f re f Q\n", b.X, b.Y, b.Width, b.Height)
}

// drawRegionText wraps, auto-shrinks and draws the translated text inside
// the region's padded box, top-down. Lines whose baseline would fall
// below the box bottom are skipped.
func drawRegionText(sb *strings.Builder, region types.TranslatedRegion, f *embeddedFont, target float64) {
	b := region.PDFBBox

	padding := target * 0.15
	if padding < 2 {
		padding = 2
	}
	availW := b.Width - 2*padding
	availH := b.Height - 2*padding
	if availW <= 0 || availH <= 0 {
		return
	}

	size, lines := fitText(region.TranslatedText, f, target, availW, availH)
	lineHeight := size * lineHeightFactor

	for i, line := range lines {
		if line == "" {
			continue
		}
		baseline := b.Y + b.Height - padding - float64(i+1)*lineHeight + (lineHeight - size)
		if baseline < b.Y {
			break
		}
		fmt.Fprintf(sb, "BT /%s %.2f Tf 0 g %.2f %.2f Td %s Tj ET\n",
			f.resName, size, b.X+padding, baseline, f.showText(line))
	}
}

// appendContent wraps the page's existing content in q/Q and appends the
// overlay as a new content stream, so leftover graphics state from the
// original stream cannot skew the overlay.
func (w *writer) appendContent(pageNr int, content string) error {
	if content == "" {
		return nil
	}

	pageDict, _, _, err := w.ctx.PageDict(pageNr, false)
	if err != nil || pageDict == nil {
		return types.NewPageError(types.ErrWriteFailed,
			fmt.Sprintf("cannot access page %d", pageNr), pageNr, err)
	}

	prefixRef, err := w.newContentStream("q\n")
	if err != nil {
		return err
	}
	suffixRef, err := w.newContentStream("Q\n" + content)
	if err != nil {
		return err
	}

	newContents := pdftypes.Array{*prefixRef}
	switch obj := pageDict["Contents"].(type) {
	case pdftypes.IndirectRef:
		newContents = append(newContents, obj)
	case pdftypes.Array:
		newContents = append(newContents, obj...)
	}
	newContents = append(newContents, *suffixRef)
	pageDict["Contents"] = newContents

	return nil
}

func (w *writer) newContentStream(content string) (*pdftypes.IndirectRef, error) {
	sd, err := w.ctx.XRefTable.NewStreamDictForBuf([]byte(content))
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot create content stream", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot encode content stream", err)
	}
	ref, err := w.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot write content stream", err)
	}
	return ref, nil
}

// embedFonts writes the font object graphs once and patches every page's
// resource dict that referenced them. Fonts embed after all pages are
// drawn so the W arrays cover every used glyph.
func (w *writer) embedFonts() error {
	refs := map[*embeddedFont]*pdftypes.IndirectRef{}

	for _, use := range w.fontUses {
		ref, ok := refs[use.font]
		if !ok {
			var err error
			ref, err = use.font.embed(w.ctx)
			if err != nil {
				return err
			}
			refs[use.font] = ref
		}
		if err := w.addFontResource(use.pageNr, use.font.resName, ref); err != nil {
			return err
		}
	}
	return nil
}

// addFontResource makes the font reachable from the page's font dict.
func (w *writer) addFontResource(pageNr int, resName string, ref *pdftypes.IndirectRef) error {
	pageDict, _, pAttrs, err := w.ctx.PageDict(pageNr, false)
	if err != nil || pageDict == nil {
		return types.NewPageError(types.ErrWriteFailed,
			fmt.Sprintf("cannot access page %d", pageNr), pageNr, err)
	}

	var resources pdftypes.Dict
	if obj, found := pageDict.Find("Resources"); found {
		resources, err = w.ctx.DereferenceDict(obj)
		if err != nil {
			return types.NewPageError(types.ErrWriteFailed,
				fmt.Sprintf("cannot read resources of page %d", pageNr), pageNr, err)
		}
	}
	if resources == nil {
		// Inherited resources must be copied down before extension, so
		// sibling pages are not affected.
		resources = pdftypes.NewDict()
		if pAttrs != nil && pAttrs.Resources != nil {
			for k, v := range pAttrs.Resources {
				resources[k] = v
			}
		}
		pageDict["Resources"] = resources
	}

	var fonts pdftypes.Dict
	if obj, found := resources.Find("Font"); found {
		fonts, err = w.ctx.DereferenceDict(obj)
		if err != nil {
			return types.NewPageError(types.ErrWriteFailed,
				fmt.Sprintf("cannot read font resources of page %d", pageNr), pageNr, err)
		}
	}
	if fonts == nil {
		fonts = pdftypes.NewDict()
		resources["Font"] = fonts
	}

	fonts[resName] = *ref
	return nil
}

// scrubLinkAnnotations removes every Link annotation whose rectangle
// overlaps a region's bbox. Removal iterates indices in reverse so
// earlier positions stay valid. Other annotation subtypes survive even
// when they overlap.
func (w *writer) scrubLinkAnnotations(pageNr int, regions []types.TranslatedRegion) error {
	pageDict, _, _, err := w.ctx.PageDict(pageNr, false)
	if err != nil || pageDict == nil {
		return types.NewPageError(types.ErrWriteFailed,
			fmt.Sprintf("cannot access page %d", pageNr), pageNr, err)
	}

	obj, found := pageDict.Find("Annots")
	if !found {
		return nil
	}
	annots, err := w.ctx.DereferenceArray(obj)
	if err != nil || annots == nil {
		return nil
	}

	var removeIdx []int
	for i, a := range annots {
		annotDict, err := w.ctx.DereferenceDict(a)
		if err != nil || annotDict == nil {
			continue
		}
		if name, ok := annotDict["Subtype"].(pdftypes.Name); !ok || name.Value() != "Link" {
			continue
		}

		rect, ok := w.annotRect(annotDict)
		if !ok {
			continue
		}
		for _, region := range regions {
			if rect.Overlaps(region.PDFBBox) {
				removeIdx = append(removeIdx, i)
				break
			}
		}
	}

	if len(removeIdx) == 0 {
		return nil
	}

	for i := len(removeIdx) - 1; i >= 0; i-- {
		idx := removeIdx[i]
		annots = append(annots[:idx], annots[idx+1:]...)
	}

	if len(annots) == 0 {
		pageDict.Delete("Annots")
	} else {
		pageDict["Annots"] = annots
	}

	logger.Debug("link annotations removed",
		logger.Int("page", pageNr),
		logger.Int("count", len(removeIdx)))

	return nil
}

// annotRect reads an annotation rectangle as a PDF-space bbox.
func (w *writer) annotRect(annotDict pdftypes.Dict) (types.PDFBBox, bool) {
	obj, found := annotDict.Find("Rect")
	if !found {
		return types.PDFBBox{}, false
	}
	arr, err := w.ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return types.PDFBBox{}, false
	}

	nums := make([]float64, 4)
	for i, o := range arr {
		v, ok := w.number(o)
		if !ok {
			return types.PDFBBox{}, false
		}
		nums[i] = v
	}

	x1, y1, x2, y2 := nums[0], nums[1], nums[2], nums[3]
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return types.PDFBBox{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}

func (w *writer) number(obj pdftypes.Object) (float64, bool) {
	o, err := w.ctx.Dereference(obj)
	if err != nil {
		return 0, false
	}
	switch v := o.(type) {
	case pdftypes.Integer:
		return float64(v.Value()), true
	case pdftypes.Float:
		return v.Value(), true
	}
	return 0, false
}

// writeAtomically serializes to a temp file next to the target and
// renames it into place.
func writeAtomically(ctx *model.Context, outputPath string) error {
	tmp := outputPath + ".tmp"
	if err := api.WriteContextFile(ctx, tmp); err != nil {
		os.Remove(tmp)
		return types.NewError(types.ErrWriteFailed, "cannot serialize document", err)
	}
	if err := os.Rename(tmp, outputPath); err != nil {
		os.Remove(tmp)
		return types.NewError(types.ErrWriteFailed, "cannot move output into place", err)
	}

	logger.Info("translated document written", logger.String("output", outputPath))
	return nil
}
