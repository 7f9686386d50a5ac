package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "arbor",
	Short: "Arbor edits authoring-tool project documents",
	Long: `Arbor manages project documents made of scenes, elements and rules.
Every edit keeps ids unique per collection and cascades deletions so that
rules never point at removed elements.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the arbor configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// loadConfig reads the configuration and builds the logger it describes.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.NewWithFormat(os.Stderr, cfg.Log.Format, level), nil
}

// openDocument opens a document file with the configured depth limit and logging.
func openDocument(cmd *cobra.Command, path string) (*cli.Document, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	factory := []record.Option{record.WithMaxDepth(cfg.MaxDepth)}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		factory = append(factory, record.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	return cli.Open(path,
		session.WithLogger(logger),
		session.WithFactoryOptions(factory...),
	)
}

// exitOnError prints a prefixed error and terminates the command.
func exitOnError(prefix string, err error) {
	if err != nil {
		fmt.Printf("%s: %v\n", prefix, err)
		os.Exit(1)
	}
}
