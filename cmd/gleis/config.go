package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jayphen/gleis/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage gleis configuration files.`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the current configuration values from all sources.`,
		RunE:  runConfigShow,
	}
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create example configuration file",
		Long: `Create an example configuration file at ~/.config/gleis/config.yaml.

The generated file contains all available options with their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths where configuration files are searched.`,
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Printf("  listen:        %s\n", cfg.Listen)
	fmt.Printf("  redis_url:     %s\n", valueOrDefault(cfg.RedisURL, "(not set)"))
	fmt.Printf("  poll_interval: %s\n", cfg.PollInterval)
	fmt.Println()
	fmt.Println("  Notion:")
	fmt.Printf("    api_key:     %s\n", maskSecret(cfg.Notion.APIKey))
	fmt.Printf("    database_id: %s\n", valueOrDefault(cfg.Notion.DatabaseID, "(not set)"))
	fmt.Printf("    state_is_select: %t\n", cfg.Notion.StateIsSelect)
	fmt.Println()
	fmt.Println("  Auth:")
	fmt.Printf("    user:     %s\n", valueOrDefault(cfg.Auth.User, "(not set)"))
	fmt.Printf("    password: %s\n", maskSecret(cfg.Auth.Password))
	fmt.Println()
	fmt.Println("  Defaults:")
	fmt.Printf("    name:    %s\n", cfg.Notion.Defaults.Name)
	fmt.Printf("    state:   %s\n", cfg.Notion.Defaults.State)
	fmt.Printf("    cat:     %s\n", cfg.Notion.Defaults.Cat)
	fmt.Printf("    sub_cat: %s\n", cfg.Notion.Defaults.SubCat)
	fmt.Printf("    done:    %s\n", cfg.Notion.Defaults.Done)

	return nil
}

func runConfigInit(force bool) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "gleis", "config.yaml")

	// Check if file exists
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := config.WriteExample(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created example configuration at %s\n", configPath)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Println("Configuration files are searched in order (later wins):")
	paths := config.ConfigPaths()
	for i := len(paths) - 1; i >= 0; i-- {
		marker := " "
		if _, err := os.Stat(paths[i]); err == nil {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, paths[i])
	}
	fmt.Println()
	fmt.Println("(* = file exists)")
	return nil
}

func valueOrDefault(val, def string) string {
	if val == "" {
		return def
	}
	return val
}

func maskSecret(val string) string {
	if val == "" {
		return "(not set)"
	}
	return "********"
}
