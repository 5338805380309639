// Package pipeline sequences the full translation of one document:
// rasterize, detect layout, extract text, match regions, translate, and
// re-emit the PDF.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"pdf-translator/internal/extract"
	"pdf-translator/internal/layout"
	"pdf-translator/internal/logger"
	"pdf-translator/internal/match"
	"pdf-translator/internal/pdfwrite"
	"pdf-translator/internal/raster"
	"pdf-translator/internal/settings"
	"pdf-translator/internal/translate"
	"pdf-translator/internal/types"
)

// preflightPages is how many leading pages the text-layer check reads.
const preflightPages = 3

// RunInput describes one translation run.
type RunInput struct {
	InputPath  string
	OutputPath string
	Settings   settings.AppSettings

	// SelectedPages are one-based page numbers. Out-of-range values are
	// silently dropped; empty means all pages.
	SelectedPages []int

	// CustomPrompt overrides the settings prompt for the LLM translator.
	CustomPrompt string

	ModelPath       string
	RegularFontPath string
	BoldFontPath    string

	// Abort is polled at the start of each page and before the write
	// stage. In-flight translation calls are not interrupted.
	Abort *atomic.Bool

	Progress types.ProgressFunc
}

// RunResult summarizes a completed run.
type RunResult struct {
	OutputPath     string
	PagesProcessed int
	RegionCount    int
	Usage          types.TranslatorUsage
}

// Run executes the pipeline for one document. Pages are processed
// strictly sequentially; the only concurrency inside a run lives in the
// LLM translator's batch. Safe to invoke from a background worker.
func Run(in RunInput) (*RunResult, error) {
	if err := in.Settings.Validate(); err != nil {
		return nil, err
	}

	p := &progressReporter{fn: in.Progress}

	p.emit("loading model", 0, 0, 0)
	if err := layout.LoadModel(in.ModelPath); err != nil {
		return nil, err
	}

	p.emit("loading document", 0, 0, 5)
	data, err := os.ReadFile(in.InputPath)
	if err != nil {
		return nil, types.NewErrorWithDetails(types.ErrAssetMissing,
			"cannot read input document", in.InputPath, err)
	}

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, types.NewError(types.ErrExtractionFailed, "cannot open document", err)
	}
	if !extract.HasTextLayer(reader, preflightPages) {
		return nil, types.NewError(types.ErrExtractionFailed,
			"document has no embedded text layer (scanned pages are not supported)", nil)
	}

	dims, err := api.PageDimsFile(in.InputPath)
	if err != nil {
		return nil, types.NewError(types.ErrExtractionFailed, "cannot read page dimensions", err)
	}

	pageSet := resolvePages(in.SelectedPages, reader.NumPage())
	if len(pageSet) == 0 {
		return nil, types.NewError(types.ErrConfigInvalid, "no pages selected", nil)
	}

	translator, err := translate.New(in.Settings, in.CustomPrompt)
	if err != nil {
		return nil, err
	}

	logger.Info("translation run started",
		logger.String("input", in.InputPath),
		logger.Int("pages", len(pageSet)),
		logger.String("translator", in.Settings.TranslatorType),
		logger.String("target", in.Settings.TargetLanguage))

	regions := types.PageRegions{}
	var usage types.TranslatorUsage
	regionCount := 0
	total := len(pageSet)

	for i, pageNr := range pageSet {
		if aborted(in.Abort) {
			return nil, types.NewCancelled()
		}

		span := 85.0 / float64(total)
		base := 10.0 + float64(i)*span

		p.emit("rendering page", pageNr, total, base)
		if pageNr-1 >= len(dims) {
			return nil, types.NewPageError(types.ErrRenderFailed,
				fmt.Sprintf("no dimensions for page %d", pageNr), pageNr, nil)
		}
		dim := dims[pageNr-1]
		img, err := raster.RenderPage(data, pageNr-1, dim.Width, dim.Height)
		if err != nil {
			return nil, err
		}

		p.emit("detecting layout", pageNr, total, base+span*0.2)
		boxes, err := layout.Detect(in.ModelPath, img)
		if err != nil {
			return nil, err
		}

		p.emit("extracting text", pageNr, total, base+span*0.4)
		blocks, err := extract.PageBlocks(reader.Page(pageNr))
		if err != nil {
			return nil, types.NewPageError(types.ErrExtractionFailed,
				fmt.Sprintf("cannot extract text of page %d", pageNr), pageNr, err)
		}

		// Regions copy the block values they keep, so page pixels and
		// blocks become collectable here; peak memory stays bounded by a
		// small constant number of pages.
		matched := match.Regions(boxes, blocks, dim.Height, img.Scale)

		p.emit("translating", pageNr, total, base+span*0.6)
		if len(matched) == 0 {
			continue
		}

		texts := make([]string, len(matched))
		for j, r := range matched {
			texts[j] = r.FullText
		}
		translated, err := translator.TranslateBatch(context.Background(), texts, "", in.Settings.TargetLanguage)
		if err != nil {
			return nil, err
		}
		usage.Add(translator.Usage())

		pageRegions := make([]types.TranslatedRegion, len(matched))
		for j, r := range matched {
			pageRegions[j] = types.TranslatedRegion{
				TranslatableRegion: r,
				TranslatedText:     translated[j],
			}
		}
		regions[pageNr-1] = pageRegions
		regionCount += len(pageRegions)
	}

	if aborted(in.Abort) {
		return nil, types.NewCancelled()
	}

	p.emit("writing document", 0, total, 95)
	err = pdfwrite.WriteTranslated(in.InputPath, in.OutputPath, regions, pdfwrite.Options{
		RegularFontPath: in.RegularFontPath,
		BoldFontPath:    in.BoldFontPath,
	})
	if err != nil {
		return nil, err
	}

	p.emit("complete", 0, total, 100)

	logger.Info("translation run complete",
		logger.Int("pages", len(pageSet)),
		logger.Int("regions", regionCount),
		logger.Int("inputTokens", usage.InputTokens),
		logger.Int("outputTokens", usage.OutputTokens))

	return &RunResult{
		OutputPath:     in.OutputPath,
		PagesProcessed: len(pageSet),
		RegionCount:    regionCount,
		Usage:          usage,
	}, nil
}

func aborted(flag *atomic.Bool) bool {
	return flag != nil && flag.Load()
}

// resolvePages intersects the one-based selection with [1..pageCount],
// deduplicated and in ascending order. An empty selection means all pages.
func resolvePages(selected []int, pageCount int) []int {
	if len(selected) == 0 {
		pages := make([]int, pageCount)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	seen := make(map[int]bool, len(selected))
	var pages []int
	for _, n := range selected {
		if n < 1 || n > pageCount || seen[n] {
			continue
		}
		seen[n] = true
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages
}

// progressReporter keeps emitted percentages monotonic.
type progressReporter struct {
	fn   types.ProgressFunc
	last float64
}

func (p *progressReporter) emit(stage string, currentPage, totalPages int, percent float64) {
	if percent < p.last {
		percent = p.last
	}
	p.last = percent

	if p.fn == nil {
		return
	}
	p.fn(types.ProgressEvent{
		Stage:       stage,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		Percent:     percent,
	})
}
