package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"codeberg.org/snonux/linguist/internal/document"
)

// Provider names
const (
	ProviderGoogle = "google"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default settings
const (
	DefaultSourceLang = "en"
	DefaultTargetLang = "zh-CN"
	DefaultTimeout    = 20 * time.Second
	DefaultRateLimit  = 2.0
)

// Backend produces translated fragments for a piece of text
type Backend interface {
	Name() string
	Fragments(ctx context.Context, text string) ([]Fragment, error)
}

// Config selects and configures a backend
type Config struct {
	Provider    string
	SourceLang  string
	TargetLang  string
	Endpoint    string
	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string
	Timeout     time.Duration
	// RateLimit is the maximum number of backend calls per second; zero or
	// less disables limiting.
	RateLimit float64
}

// NewBackend creates the backend named in cfg.Provider
func NewBackend(cfg Config) (Backend, error) {
	source := cfg.SourceLang
	if source == "" {
		source = DefaultSourceLang
	}
	target := cfg.TargetLang
	if target == "" {
		target = DefaultTargetLang
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderGoogle, "":
		return NewGoogleBackend(cfg.Endpoint, source, target), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg.OpenAIKey, cfg.OpenAIModel, source, target), nil
	case ProviderGemini:
		return NewGeminiBackend(cfg.GeminiKey, cfg.GeminiModel, source, target), nil
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", cfg.Provider)
	}
}

// Translator translates page text into sentence pairs
type Translator struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	timeout time.Duration
	logger  *log.Logger
}

// Option configures a Translator
type Option func(*Translator)

// WithTimeout bounds each backend call
func WithTimeout(d time.Duration) Option {
	return func(t *Translator) {
		t.timeout = d
	}
}

// WithRateLimit caps backend calls per second; zero or less disables it
func WithRateLimit(perSecond float64) Option {
	return func(t *Translator) {
		if perSecond <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewTranslator wraps backend with timeout, rate limiting and a circuit
// breaker that opens after five consecutive failures.
func NewTranslator(backend Backend, logger *log.Logger, opts ...Option) *Translator {
	t := &Translator{
		backend: backend,
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        backend.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("backend", name).Str("from", from.String()).Str("to", to.String()).Msg("Translation circuit breaker changed state")
		},
	})
	return t
}

// FromConfig builds the backend and translator described by cfg
func FromConfig(cfg Config, logger *log.Logger) (*Translator, error) {
	backend, err := NewBackend(cfg)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithRateLimit(cfg.RateLimit)}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	return NewTranslator(backend, logger, opts...), nil
}

// Provider returns the backend name
func (t *Translator) Provider() string {
	return t.backend.Name()
}

// Translate returns the sentence pairs for text in the order the backend
// produced them. Blank text yields an empty result without a backend call.
// On failure a *TranslationError is returned and no pairs.
func (t *Translator) Translate(ctx context.Context, text string) ([]document.SentencePair, error) {
	if strings.TrimSpace(text) == "" {
		return []document.SentencePair{}, nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &TranslationError{Provider: t.backend.Name(), Err: err}
	}

	start := time.Now()
	result, err := t.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		return t.backend.Fragments(callCtx, text)
	})
	if err != nil {
		t.logger.Warn().Err(err).Str("backend", t.backend.Name()).Int("chars", len(text)).Msg("Translation failed")
		return nil, &TranslationError{Provider: t.backend.Name(), Err: err}
	}

	pairs := ToSentencePairs(result.([]Fragment))
	t.logger.Debug().Str("backend", t.backend.Name()).Int("pairs", len(pairs)).Dur("took", time.Since(start)).Msg("Translated text")
	return pairs, nil
}
