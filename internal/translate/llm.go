package translate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// DefaultSystemPrompt is the built-in instruction for the LLM variant.
const DefaultSystemPrompt = "You are a professional translator. Translate the following text accurately and naturally. Output only the translated text, nothing else. Preserve any formatting, numbers, and special characters."

// llmTemperature keeps translations consistent across calls.
const llmTemperature = float32(0.3)

// llmConcurrency bounds in-flight completion calls per batch.
const llmConcurrency = 5

// knownProviders are the OpenAI-compatible providers the LLM variant
// accepts; all of them are served through the same chat-completions
// transport, differing only in base URL.
var knownProviders = map[string]bool{
	"":           true,
	"openai":     true,
	"deepseek":   true,
	"ollama":     true,
	"openrouter": true,
	"custom":     true,
}

// LLMConfig configures the LLM translator.
type LLMConfig struct {
	Provider     string
	Model        string
	APIToken     string
	BaseURL      string
	SystemPrompt string
	// Prices in USD per 1M tokens; zero disables cost accounting.
	InputPrice  float64
	OutputPrice float64
}

// LLMTranslator translates through a chat-completions model with a
// bounded worker pool and per-batch usage accounting.
type LLMTranslator struct {
	cfg LLMConfig

	modelOnce sync.Once
	modelErr  error
	chatModel model.BaseChatModel

	usageMu sync.Mutex
	usage   types.TranslatorUsage
}

// NewLLMTranslator validates the configuration and creates the translator.
// The chat model itself is constructed lazily on first use.
func NewLLMTranslator(cfg LLMConfig) (*LLMTranslator, error) {
	if !knownProviders[strings.ToLower(cfg.Provider)] {
		return nil, types.NewErrorWithDetails(types.ErrConfigInvalid,
			"unknown llm provider", cfg.Provider, nil)
	}
	if cfg.Model == "" {
		return nil, types.NewError(types.ErrConfigInvalid, "llm model not configured", nil)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &LLMTranslator{cfg: cfg}, nil
}

func (t *LLMTranslator) getModel(ctx context.Context) (model.BaseChatModel, error) {
	t.modelOnce.Do(func() {
		temp := llmTemperature
		mc := &openai.ChatModelConfig{
			APIKey:      t.cfg.APIToken,
			Model:       t.cfg.Model,
			Temperature: &temp,
		}
		if t.cfg.BaseURL != "" {
			mc.BaseURL = t.cfg.BaseURL
		}
		cm, err := openai.NewChatModel(ctx, mc)
		if err != nil {
			t.modelErr = types.NewError(types.ErrConfigInvalid, "cannot create chat model", err)
			return
		}
		t.chatModel = cm
	})
	return t.chatModel, t.modelErr
}

// Translate translates one text through a single completion call.
func (t *LLMTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	cm, err := t.getModel(ctx)
	if err != nil {
		return "", err
	}

	userPrompt := fmt.Sprintf("Translate from %s to %s:\n\n%s",
		languageName(from), languageName(to), text)

	resp, err := cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(t.cfg.SystemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", types.NewError(types.ErrTranslationFailed, "completion call failed", err)
	}

	t.recordUsage(resp)

	// A response without a text block falls back to the input unchanged.
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return text, nil
	}
	return strings.TrimSpace(resp.Content), nil
}

func (t *LLMTranslator) recordUsage(resp *schema.Message) {
	if resp == nil || resp.ResponseMeta == nil || resp.ResponseMeta.Usage == nil {
		return
	}
	u := resp.ResponseMeta.Usage

	t.usageMu.Lock()
	defer t.usageMu.Unlock()
	t.usage.InputTokens += u.PromptTokens
	t.usage.OutputTokens += u.CompletionTokens
	t.usage.TotalCost += float64(u.PromptTokens)*t.cfg.InputPrice/1e6 +
		float64(u.CompletionTokens)*t.cfg.OutputPrice/1e6
}

// TranslateBatch translates texts with a pool of up to llmConcurrency
// workers draining a shared cursor into distinct result slots. Usage
// counters reset at the start of each batch. The first failure cancels
// the remaining work and propagates.
func (t *LLMTranslator) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	t.usageMu.Lock()
	t.usage = types.TranslatorUsage{}
	t.usageMu.Unlock()

	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]string, len(texts))
	var cursor atomic.Int64
	var firstErr error
	var errMu sync.Mutex
	var wg sync.WaitGroup

	workers := llmConcurrency
	if workers > len(texts) {
		workers = len(texts)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(texts) {
					return
				}
				if ctx.Err() != nil {
					return
				}

				translated, err := t.Translate(ctx, texts[i], from, to)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					cancel()
					return
				}
				results[i] = translated
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	u := t.Usage()
	logger.Debug("llm batch translated",
		logger.Int("texts", len(texts)),
		logger.Int("inputTokens", u.InputTokens),
		logger.Int("outputTokens", u.OutputTokens))

	return results, nil
}

// Usage returns the accounting of the most recent batch.
func (t *LLMTranslator) Usage() types.TranslatorUsage {
	t.usageMu.Lock()
	defer t.usageMu.Unlock()
	return t.usage
}
