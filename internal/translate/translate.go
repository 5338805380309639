// Package translate provides the translation service used by the
// pipeline, with a rule-based web variant and an LLM variant behind one
// interface.
package translate

import (
	"context"

	"pdf-translator/internal/settings"
	"pdf-translator/internal/types"
)

// Translator is the unified translation interface. TranslateBatch
// preserves input order 1:1. Usage is only meaningful after the most
// recent batch completes; the web variant always reports zeros.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
	TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error)
	Usage() types.TranslatorUsage
}

// New builds a translator from settings. customPrompt, when non-empty,
// overrides the settings' prompt for the LLM variant.
func New(s settings.AppSettings, customPrompt string) (Translator, error) {
	switch s.TranslatorType {
	case settings.TranslatorGoogle:
		return NewGoogleTranslator(), nil
	case settings.TranslatorLLM:
		prompt := s.CustomPrompt
		if customPrompt != "" {
			prompt = customPrompt
		}
		return NewLLMTranslator(LLMConfig{
			Provider:     s.LLMProvider,
			Model:        s.LLMModel,
			APIToken:     s.LLMAPIToken,
			BaseURL:      s.LLMBaseURL,
			SystemPrompt: prompt,
			InputPrice:   s.LLMInputPrice,
			OutputPrice:  s.LLMOutputPrice,
		})
	default:
		return nil, types.NewErrorWithDetails(types.ErrConfigInvalid,
			"unknown translator type", s.TranslatorType, nil)
	}
}
