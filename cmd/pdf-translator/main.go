// Command pdf-translator translates a PDF document while preserving its
// visual layout.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/settings"
	"pdf-translator/internal/types"
)

func main() {
	var (
		inPath       = flag.String("in", "", "input PDF path")
		outPath      = flag.String("out", "", "output PDF path")
		pagesArg     = flag.String("pages", "", "comma-separated one-based page numbers (empty = all)")
		settingsPath = flag.String("settings", "settings.json", "settings file path")
		modelPath    = flag.String("model", "", "DocLayout-YOLO ONNX model path")
		fontPath     = flag.String("font", "", "regular TTF font path (must cover the target script)")
		boldFontPath = flag.String("bold-font", "", "optional bold TTF font path for titles")
		prompt       = flag.String("prompt", "", "custom system prompt for the LLM translator")
		logPath      = flag.String("log", "", "log file path (empty = console only)")
		verbose      = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *inPath == "" || *outPath == "" || *modelPath == "" || *fontPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pdf-translator -in input.pdf -out output.pdf -model layout.onnx -font font.ttf [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFilePath = *logPath
	logCfg.EnableConsole = true
	if *verbose {
		logCfg.Level = logger.LevelDebug
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintln(os.Stderr, "cannot initialize logging:", err)
		os.Exit(1)
	}
	defer logger.Close()

	appSettings, err := settings.Load(*settingsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pages, err := parsePages(*pagesArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var abort atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ncancelling after the current page...")
		abort.Store(true)
	}()

	result, err := pipeline.Run(pipeline.RunInput{
		InputPath:       *inPath,
		OutputPath:      *outPath,
		Settings:        *appSettings,
		SelectedPages:   pages,
		CustomPrompt:    *prompt,
		ModelPath:       *modelPath,
		RegularFontPath: *fontPath,
		BoldFontPath:    *boldFontPath,
		Abort:           &abort,
		Progress: func(e types.ProgressEvent) {
			if e.CurrentPage > 0 {
				fmt.Printf("[%5.1f%%] %s (page %d/%d)\n", e.Percent, e.Stage, e.CurrentPage, e.TotalPages)
			} else {
				fmt.Printf("[%5.1f%%] %s\n", e.Percent, e.Stage)
			}
		},
	})
	if err != nil {
		if types.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "cancelled")
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "translation failed:", err)
		os.Exit(1)
	}

	fmt.Printf("done: %s (%d pages, %d regions)\n",
		result.OutputPath, result.PagesProcessed, result.RegionCount)
	if result.Usage.InputTokens > 0 || result.Usage.OutputTokens > 0 {
		fmt.Printf("usage: %d input tokens, %d output tokens, $%.4f\n",
			result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.TotalCost)
	}
}

// parsePages parses "1,3,7" into page numbers. Range filtering against
// the document happens inside the pipeline.
func parsePages(arg string) ([]int, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(arg, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		pages = append(pages, n)
	}
	return pages, nil
}
