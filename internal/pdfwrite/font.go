package pdfwrite

import (
	"fmt"
	"os"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// metricsPPEM measures glyphs at 1000 units per em, matching PDF text
// space per mille.
var metricsPPEM = fixed.I(1000)

// missingGlyphFactor is the width fallback for unmeasurable characters,
// as a fraction of the font size.
const missingGlyphFactor = 0.5

// embeddedFont is one TTF prepared for embedding, or the Helvetica
// fallback when fallback is true.
type embeddedFont struct {
	fallback bool

	data    []byte
	sfnt    *sfnt.Font
	buf     sfnt.Buffer
	psName  string
	ascent  int // per mille
	descent int // per mille, positive down

	// used collects the glyph IDs actually drawn, for the W array.
	used map[sfnt.GlyphIndex]int

	resName string // resource name inside page font dicts
}

// helveticaFallback returns the degraded standard-font replacement used
// when a TTF cannot be loaded.
func helveticaFallback(resName string) *embeddedFont {
	return &embeddedFont{fallback: true, resName: resName}
}

// loadFont parses a TTF for embedding. On any failure the caller is
// expected to degrade to Helvetica rather than fail the run.
func loadFont(path, resName string) (*embeddedFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewErrorWithDetails(types.ErrAssetMissing, "font not readable", path, err)
	}

	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, types.NewErrorWithDetails(types.ErrAssetMissing, "font not parseable", path, err)
	}

	ef := &embeddedFont{
		data:    data,
		sfnt:    f,
		used:    make(map[sfnt.GlyphIndex]int),
		resName: resName,
	}

	if name, err := f.Name(&ef.buf, sfnt.NameIDPostScript); err == nil && name != "" {
		ef.psName = name
	} else {
		ef.psName = "EmbeddedFont"
	}

	if m, err := f.Metrics(&ef.buf, metricsPPEM, font.HintingNone); err == nil {
		ef.ascent = m.Ascent.Round()
		ef.descent = m.Descent.Round()
	} else {
		ef.ascent = 800
		ef.descent = 200
	}

	return ef, nil
}

// charWidth measures one rune at the given font size in PDF points.
// Characters without a glyph fall back to half the font size.
func (ef *embeddedFont) charWidth(r rune, size float64) float64 {
	if ef.fallback || ef.sfnt == nil {
		return size * missingGlyphFactor
	}

	gid, err := ef.sfnt.GlyphIndex(&ef.buf, r)
	if err != nil || gid == 0 {
		return size * missingGlyphFactor
	}

	adv, err := ef.sfnt.GlyphAdvance(&ef.buf, gid, metricsPPEM, font.HintingNone)
	if err != nil {
		return size * missingGlyphFactor
	}
	return float64(adv.Round()) * size / 1000.0
}

// glyphID resolves a rune to its glyph and records it for the W array.
// Unmapped runes resolve to the .notdef glyph.
func (ef *embeddedFont) glyphID(r rune) uint16 {
	if ef.fallback || ef.sfnt == nil {
		return 0
	}
	gid, err := ef.sfnt.GlyphIndex(&ef.buf, r)
	if err != nil {
		gid = 0
	}
	if _, ok := ef.used[gid]; !ok {
		w := 1000
		if adv, err := ef.sfnt.GlyphAdvance(&ef.buf, gid, metricsPPEM, font.HintingNone); err == nil {
			w = adv.Round()
		}
		ef.used[gid] = w
	}
	return uint16(gid)
}

// embed writes the font's object graph into the context and returns the
// indirect reference of the Type0 font dict. The font program is embedded
// unsubsetted: the set of translated glyphs is not known at embed time
// without a second pass.
func (ef *embeddedFont) embed(ctx *model.Context) (*pdftypes.IndirectRef, error) {
	if ef.fallback {
		return embedHelvetica(ctx)
	}

	sd, err := ctx.XRefTable.NewStreamDictForBuf(ef.data)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot create font stream", err)
	}
	sd.InsertInt("Length1", len(ef.data))
	if err := sd.Encode(); err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot encode font stream", err)
	}
	fontFileRef, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot write font stream", err)
	}

	descriptor := pdftypes.Dict(map[string]pdftypes.Object{
		"Type":        pdftypes.Name("FontDescriptor"),
		"FontName":    pdftypes.Name(ef.psName),
		"Flags":       pdftypes.Integer(4),
		"FontBBox":    pdftypes.NewNumberArray(-1000, float64(-ef.descent), 2000, float64(ef.ascent)),
		"ItalicAngle": pdftypes.Integer(0),
		"Ascent":      pdftypes.Integer(ef.ascent),
		"Descent":     pdftypes.Integer(-ef.descent),
		"CapHeight":   pdftypes.Integer(ef.ascent),
		"StemV":       pdftypes.Integer(80),
		"FontFile2":   *fontFileRef,
	})
	descriptorRef, err := ctx.IndRefForNewObject(descriptor)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot write font descriptor", err)
	}

	cidFont := pdftypes.Dict(map[string]pdftypes.Object{
		"Type":     pdftypes.Name("Font"),
		"Subtype":  pdftypes.Name("CIDFontType2"),
		"BaseFont": pdftypes.Name(ef.psName),
		"CIDSystemInfo": pdftypes.Dict(map[string]pdftypes.Object{
			"Registry":   pdftypes.StringLiteral("Adobe"),
			"Ordering":   pdftypes.StringLiteral("Identity"),
			"Supplement": pdftypes.Integer(0),
		}),
		"FontDescriptor": *descriptorRef,
		"DW":             pdftypes.Integer(1000),
		"W":              ef.widthArray(),
		"CIDToGIDMap":    pdftypes.Name("Identity"),
	})
	cidFontRef, err := ctx.IndRefForNewObject(cidFont)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot write CID font", err)
	}

	type0 := pdftypes.Dict(map[string]pdftypes.Object{
		"Type":            pdftypes.Name("Font"),
		"Subtype":         pdftypes.Name("Type0"),
		"BaseFont":        pdftypes.Name(ef.psName),
		"Encoding":        pdftypes.Name("Identity-H"),
		"DescendantFonts": pdftypes.Array{*cidFontRef},
	})
	ref, err := ctx.IndRefForNewObject(type0)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot write font dict", err)
	}

	logger.Debug("font embedded",
		logger.String("font", ef.psName),
		logger.Int("glyphs", len(ef.used)))

	return ref, nil
}

// widthArray builds the W entry for the glyphs seen so far.
func (ef *embeddedFont) widthArray() pdftypes.Array {
	gids := make([]int, 0, len(ef.used))
	for gid := range ef.used {
		gids = append(gids, int(gid))
	}
	sort.Ints(gids)

	arr := pdftypes.Array{}
	for _, gid := range gids {
		arr = append(arr,
			pdftypes.Integer(gid),
			pdftypes.Array{pdftypes.Integer(ef.used[sfnt.GlyphIndex(gid)])})
	}
	return arr
}

// embedHelvetica writes the standard-font dict used by the degraded path.
func embedHelvetica(ctx *model.Context) (*pdftypes.IndirectRef, error) {
	d := pdftypes.Dict(map[string]pdftypes.Object{
		"Type":     pdftypes.Name("Font"),
		"Subtype":  pdftypes.Name("Type1"),
		"BaseFont": pdftypes.Name("Helvetica"),
		"Encoding": pdftypes.Name("WinAnsiEncoding"),
	})
	ref, err := ctx.IndRefForNewObject(d)
	if err != nil {
		return nil, types.NewError(types.ErrWriteFailed, "cannot write fallback font dict", err)
	}
	return ref, nil
}

// showText encodes one line for a Tj operator: big-endian glyph IDs in a
// hex string for embedded fonts, an escaped literal for the fallback.
func (ef *embeddedFont) showText(line string) string {
	if ef.fallback {
		return "(" + escapeLiteral(line) + ")"
	}

	out := make([]byte, 0, len(line)*4+2)
	out = append(out, '<')
	for _, r := range line {
		gid := ef.glyphID(r)
		out = append(out, []byte(fmt.Sprintf("%04X", gid))...)
	}
	out = append(out, '>')
	return string(out)
}

// escapeLiteral escapes a PDF literal string, replacing characters the
// fallback encoding cannot carry.
func escapeLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			out = append(out, '\\', byte(r))
		default:
			if r < 32 || r > 126 {
				out = append(out, '?')
			} else {
				out = append(out, byte(r))
			}
		}
	}
	return string(out)
}
