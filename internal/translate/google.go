package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/types"
)

// googleEndpoint is the free web translation endpoint. It is rate limited,
// hence the fixed delay between calls.
const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// googleRequestDelay is the pause between consecutive calls.
const googleRequestDelay = 100 * time.Millisecond

// GoogleTranslator translates through the free web service, one text at a
// time. It keeps no usage accounting.
type GoogleTranslator struct {
	client   *http.Client
	endpoint string
}

// NewGoogleTranslator creates the web translator.
func NewGoogleTranslator() *GoogleTranslator {
	return &GoogleTranslator{
		client:   &http.Client{Timeout: 30 * time.Second},
		endpoint: googleEndpoint,
	}
}

// Translate translates a single text.
func (g *GoogleTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", types.NewCancelled()
	}
	if from == "" {
		from = "auto"
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", from)
	q.Set("tl", to)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", types.NewError(types.ErrTranslationFailed, "cannot build translation request", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrTranslationFailed, "translation request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewError(types.ErrTranslationFailed, "cannot read translation response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.NewErrorWithDetails(types.ErrTranslationFailed,
			"translation service error", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	translated, err := parseGoogleResponse(body)
	if err != nil {
		return "", err
	}
	return translated, nil
}

// parseGoogleResponse extracts the translated sentences from the nested
// array payload: [[["translated","original",...],...],...].
func parseGoogleResponse(body []byte) (string, error) {
	var payload []interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", types.NewError(types.ErrTranslationFailed, "unexpected translation response", err)
	}
	if len(payload) == 0 {
		return "", types.NewError(types.ErrTranslationFailed, "empty translation response", nil)
	}

	sentences, ok := payload[0].([]interface{})
	if !ok {
		return "", types.NewError(types.ErrTranslationFailed, "unexpected translation response shape", nil)
	}

	var sb strings.Builder
	for _, s := range sentences {
		parts, ok := s.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if text, ok := parts[0].(string); ok {
			sb.WriteString(text)
		}
	}
	return sb.String(), nil
}

// TranslateBatch translates texts sequentially with a fixed delay between
// calls to stay under the service's rate limits.
func (g *GoogleTranslator) TranslateBatch(ctx context.Context, texts []string, from, to string) ([]string, error) {
	results := make([]string, len(texts))
	for i, text := range texts {
		if i > 0 {
			select {
			case <-time.After(googleRequestDelay):
			case <-ctx.Done():
				return nil, types.NewCancelled()
			}
		}

		translated, err := g.Translate(ctx, text, from, to)
		if err != nil {
			return nil, err
		}
		results[i] = translated
	}

	logger.Debug("google batch translated", logger.Int("texts", len(texts)))
	return results, nil
}

// Usage always reports zeros for the web translator.
func (g *GoogleTranslator) Usage() types.TranslatorUsage {
	return types.TranslatorUsage{}
}
