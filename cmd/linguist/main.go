package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/linguist/internal/archive"
	"codeberg.org/snonux/linguist/internal/cli"
	"codeberg.org/snonux/linguist/internal/models"
	"codeberg.org/snonux/linguist/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runCommand(ctx, cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, cmd *cobra.Command, args []string, flags *cli.Flags) error {
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}

	// Handle --archive flag before the store is opened
	if flags.Archive {
		archivePath, err := archive.ArchiveState(cfg.Storage.Dir)
		if err != nil {
			return fmt.Errorf("failed to archive state: %w", err)
		}
		fmt.Printf("State directory archived to: %s\n", archivePath)
		return nil
	}

	// Handle --list-models flag
	if flags.ListModels {
		lister := models.NewLister(cli.GetOpenAIKey())
		return lister.ListAvailableModels(ctx, os.Stdout)
	}

	logger := cli.NewLogger(cfg.LogLevel)

	proc, err := processor.NewProcessor(flags, cfg, logger)
	if err != nil {
		return err
	}
	defer proc.Close()

	switch {
	case flags.History:
		return proc.ShowHistory()
	case flags.Delete != "":
		return proc.DeleteEntry(flags.Delete)
	case flags.BatchFile != "":
		return proc.ProcessBatch(ctx)
	case flags.ExportImages != "":
		if len(args) == 0 {
			return fmt.Errorf("--export-images needs a document")
		}
		_, err := proc.ExportImages(ctx, args[0], flags.ExportImages)
		return err
	case flags.Anki != "":
		if len(args) == 0 {
			return fmt.Errorf("--anki needs a document")
		}
		_, err := proc.ExportAnki(ctx, args[0], flags.Anki)
		return err
	case len(args) > 0:
		return proc.Read(ctx, args[0])
	default:
		// No input provided - show what was read recently
		if err := proc.ShowHistory(); err != nil {
			return err
		}
		fmt.Printf("\nOpen a document with: %s FILE\n", cmd.Root().Name())
		return nil
	}
}
