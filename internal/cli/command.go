package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/linguist/internal"
)

// DefaultStateDir returns ~/.local/state/linguist
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "linguist")
}

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "linguist [file]",
		Short: "Bilingual Document Reader",
		Long: `linguist opens PDF, Word and text documents page by page and shows
each page next to its sentence-by-sentence translation.

Translations are cached per document and reading progress is remembered,
so reopening a document resumes where you left off.

Examples:
  linguist paper.pdf               # Read a document interactively
  linguist --history               # Show recently read documents
  linguist --delete paper.pdf      # Forget a document and its translations
  linguist --batch reading.txt     # Pre-translate a list of documents
  linguist --anki deck.apkg paper.pdf  # Turn translated sentences into flashcards`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.linguist.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: trace, debug, info, warn, error")

	// Local flags
	cmd.Flags().StringVar(&flags.StateDir, "state-dir", DefaultStateDir(), "Directory holding the history and translation cache")
	cmd.Flags().StringVar(&flags.StorageBackend, "storage", flags.StorageBackend, "Storage backend: sqlite, badger or memory")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Pre-translate documents listed in file (one path per line)")
	cmd.Flags().StringVar(&flags.ExportImages, "export-images", "", "Write page snapshots of the document as JPEG files into this directory")
	cmd.Flags().StringVar(&flags.Anki, "anki", "", "Export the document's translated sentences as Anki flashcards (.apkg, or .csv for text import)")
	cmd.Flags().StringVar(&flags.DeckName, "deck-name", "", "Anki deck name (default \"Linguist: <document>\")")
	cmd.Flags().BoolVar(&flags.AnkiSnapshots, "anki-snapshots", false, "Add the page snapshot to each flashcard")
	cmd.Flags().BoolVar(&flags.History, "history", false, "List recently read documents")
	cmd.Flags().StringVar(&flags.Delete, "delete", "", "Delete a document's history entry and cached translations")
	cmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Do not ask for confirmation when deleting")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the state directory into a timestamped archive")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI chat models for the current API key")
	cmd.Flags().BoolVar(&flags.NoAutoTranslate, "no-auto-translate", false, "Do not translate pages automatically when they are shown")

	// Translation flags
	cmd.Flags().StringVarP(&flags.Provider, "provider", "p", flags.Provider, "Translation provider: google, openai or gemini")
	cmd.Flags().StringVar(&flags.SourceLang, "source", flags.SourceLang, "Source language code")
	cmd.Flags().StringVar(&flags.TargetLang, "target", flags.TargetLang, "Target language code")
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI chat model used for translation")
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini model used for translation")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "Timeout of a single translation request")
	cmd.Flags().Float64Var(&flags.RateLimit, "rate-limit", flags.RateLimit, "Maximum translation requests per second (0 disables the limit)")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("storage.dir", cmd.Flags().Lookup("state-dir"))
	viper.BindPFlag("storage.backend", cmd.Flags().Lookup("storage"))
	viper.BindPFlag("translation.provider", cmd.Flags().Lookup("provider"))
	viper.BindPFlag("translation.source_lang", cmd.Flags().Lookup("source"))
	viper.BindPFlag("translation.target_lang", cmd.Flags().Lookup("target"))
	viper.BindPFlag("translation.openai_model", cmd.Flags().Lookup("openai-model"))
	viper.BindPFlag("translation.gemini_model", cmd.Flags().Lookup("gemini-model"))
	viper.BindPFlag("translation.timeout", cmd.Flags().Lookup("timeout"))
	viper.BindPFlag("translation.rate_limit", cmd.Flags().Lookup("rate-limit"))
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".linguist" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".linguist")
	}

	// Environment variables
	viper.SetEnvPrefix("LINGUIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("translation.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("translation.gemini_key")
}
