package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"codeberg.org/snonux/linguist/internal/translation"
)

// Config is the validated runtime configuration
type Config struct {
	Translation TranslationConfig
	Storage     StorageConfig
	LogLevel    string `validate:"oneof=trace debug info warn error"`
}

// TranslationConfig selects the translation backend
type TranslationConfig struct {
	Provider    string        `validate:"oneof=google openai gemini"`
	SourceLang  string        `validate:"required"`
	TargetLang  string        `validate:"required,nefield=SourceLang"`
	Endpoint    string        `validate:"omitempty,url"`
	OpenAIModel string        `validate:"required_if=Provider openai"`
	GeminiModel string        `validate:"required_if=Provider gemini"`
	Timeout     time.Duration `validate:"gt=0"`
	RateLimit   float64       `validate:"gte=0"`
}

// StorageConfig locates persisted state
type StorageConfig struct {
	Backend string `validate:"oneof=sqlite badger memory"`
	Dir     string `validate:"required_unless=Backend memory"`
}

var validate = validator.New()

// LoadConfig reads the configuration from viper (flags, environment and
// config file) and validates it
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Translation: TranslationConfig{
			Provider:    strings.ToLower(viper.GetString("translation.provider")),
			SourceLang:  viper.GetString("translation.source_lang"),
			TargetLang:  viper.GetString("translation.target_lang"),
			Endpoint:    viper.GetString("translation.endpoint"),
			OpenAIModel: viper.GetString("translation.openai_model"),
			GeminiModel: viper.GetString("translation.gemini_model"),
			Timeout:     viper.GetDuration("translation.timeout"),
			RateLimit:   viper.GetFloat64("translation.rate_limit"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(viper.GetString("storage.backend")),
			Dir:     viper.GetString("storage.dir"),
		},
		LogLevel: strings.ToLower(viper.GetString("log.level")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// TranslatorConfig returns the translation settings including API keys
func (c *Config) TranslatorConfig() translation.Config {
	return translation.Config{
		Provider:    c.Translation.Provider,
		SourceLang:  c.Translation.SourceLang,
		TargetLang:  c.Translation.TargetLang,
		Endpoint:    c.Translation.Endpoint,
		OpenAIKey:   GetOpenAIKey(),
		OpenAIModel: c.Translation.OpenAIModel,
		GeminiKey:   GetGeminiKey(),
		GeminiModel: c.Translation.GeminiModel,
		Timeout:     c.Translation.Timeout,
		RateLimit:   c.Translation.RateLimit,
	}
}
