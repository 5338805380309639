// Package settings provides the application settings file.
// Settings are stored as a flat JSON document; unknown keys are ignored
// and missing keys take defaults.
package settings

import (
	"encoding/json"
	"os"
	"sync"

	"golang.org/x/text/language"

	"pdf-translator/internal/types"
)

// Translator type values accepted in the settings file.
const (
	TranslatorGoogle = "google"
	TranslatorLLM    = "llm"
)

// DefaultTargetLanguage is used when the settings file omits one.
const DefaultTargetLanguage = "zh-CN"

// AppSettings holds the options the pipeline consumes.
type AppSettings struct {
	TranslatorType string `json:"translatorType"`
	TargetLanguage string `json:"targetLanguage"`

	LLMProvider string `json:"llmProvider"`
	LLMModel    string `json:"llmModel"`
	LLMAPIToken string `json:"llmApiToken"`
	LLMBaseURL  string `json:"llmBaseUrl"`

	// CustomPrompt overrides the built-in system prompt when non-empty.
	CustomPrompt string `json:"customPrompt"`

	// Token prices in USD per 1M tokens, used for cost accounting.
	LLMInputPrice  float64 `json:"llmInputPrice"`
	LLMOutputPrice float64 `json:"llmOutputPrice"`
}

// Default returns settings with every missing key at its default.
func Default() *AppSettings {
	return &AppSettings{
		TranslatorType: TranslatorGoogle,
		TargetLanguage: DefaultTargetLanguage,
	}
}

// Load reads settings from path. A missing file yields defaults; a present
// file only overrides the keys it sets.
func Load(path string) (*AppSettings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, types.NewError(types.ErrConfigInvalid, "cannot read settings file", err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, types.NewError(types.ErrConfigInvalid, "settings file is not valid JSON", err)
	}
	s.applyDefaults()
	return s, nil
}

func (s *AppSettings) applyDefaults() {
	if s.TranslatorType == "" {
		s.TranslatorType = TranslatorGoogle
	}
	if s.TargetLanguage == "" {
		s.TargetLanguage = DefaultTargetLanguage
	}
}

// Validate checks the settings for use by a run.
func (s *AppSettings) Validate() error {
	switch s.TranslatorType {
	case TranslatorGoogle, TranslatorLLM:
	default:
		return types.NewErrorWithDetails(types.ErrConfigInvalid,
			"unknown translator type", s.TranslatorType, nil)
	}

	if _, err := language.Parse(s.TargetLanguage); err != nil {
		return types.NewErrorWithDetails(types.ErrConfigInvalid,
			"invalid target language", s.TargetLanguage, err)
	}

	if s.TranslatorType == TranslatorLLM && s.LLMModel == "" {
		return types.NewError(types.ErrConfigInvalid, "llm translator requires a model", nil)
	}
	return nil
}

// Manager guards a settings value for shared access.
type Manager struct {
	path     string
	settings *AppSettings
	mu       sync.RWMutex
}

// NewManager loads settings from path into a manager.
func NewManager(path string) (*Manager, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, settings: s}, nil
}

// Get returns a copy of the current settings.
func (m *Manager) Get() AppSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.settings
}

// Set replaces the current settings.
func (m *Manager) Set(s AppSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
}

// Save writes the current settings back to the manager's path.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0600)
}
