package cli

import (
	"time"

	"codeberg.org/snonux/linguist/internal/store"
	"codeberg.org/snonux/linguist/internal/translation"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile         string
	StateDir        string
	StorageBackend  string
	LogLevel        string
	BatchFile       string
	ExportImages    string
	Anki            string
	DeckName        string
	AnkiSnapshots   bool
	History         bool
	Delete          string
	Yes             bool
	Archive         bool
	ListModels      bool
	NoAutoTranslate bool

	// Translation flags
	Provider    string
	SourceLang  string
	TargetLang  string
	OpenAIModel string
	GeminiModel string
	Timeout     time.Duration
	RateLimit   float64
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		StorageBackend: store.BackendSQLite,
		LogLevel:       "warn",
		Provider:       translation.ProviderGoogle,
		SourceLang:     translation.DefaultSourceLang,
		TargetLang:     translation.DefaultTargetLang,
		OpenAIModel:    "gpt-4o-mini",
		GeminiModel:    translation.DefaultGeminiModel,
		Timeout:        translation.DefaultTimeout,
		RateLimit:      translation.DefaultRateLimit,
	}
}
