// Package main is the entry point for the gleis dashboard backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/logging"
)

// Version is set at build time.
var Version = "dev"

func main() {
	// Initialize logging from config
	initLogging()

	rootCmd := &cobra.Command{
		Use:   "gleis",
		Short: "Notion-backed task dashboard",
		Long: `Gleis serves a personal task dashboard on top of a Notion task
database: calendar-scoped task queries, create/update/complete
mutations, and persisted view preferences.`,
	}

	// Add subcommands
	rootCmd.AddCommand(
		newServeCmd(),
		newTasksCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging initializes the logger from config.
func initLogging() {
	cfg, err := config.Get()
	if err != nil {
		// If config fails, use defaults (console output)
		_ = logging.Init(nil)
		return
	}

	lc := logging.LoggingConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		JSON:       cfg.Logging.JSON,
		Console:    cfg.Logging.Console,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	}

	if err := logging.InitFromLogConfig(lc); err != nil {
		// Fall back to defaults on error
		_ = logging.Init(nil)
	}
}
