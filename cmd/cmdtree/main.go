// Package main provides the CLI entry point for cmdtree, a reference host for
// declarative chat commands.
//
// # Basic Usage
//
// Start an interactive console with tab completion:
//
//	cmdtree console
//
// Act as a player so permissions and completion apply:
//
//	cmdtree console --player Steve
//
// Run a single command line:
//
//	cmdtree exec -- town list
//
// Relay Discord messages to the command map:
//
//	cmdtree discord --config cmdtree.yaml
//
// # Environment Variables
//
//   - CMDTREE_CONFIG: Path to configuration file
//   - Any ${VAR} referenced in the configuration file is expanded on load
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD) -X main.date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
func buildRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "cmdtree",
		Short: "cmdtree - declarative chat command host",
		Long: `cmdtree hosts root commands with sub-commands, permission checks,
argument validation, help rendering and tab completion.

It ships the /town example plugin and can be driven from an interactive
console, a single command line, or a Discord bot.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CMDTREE_CONFIG"),
		"Path to YAML or JSON5 configuration file")

	rootCmd.AddCommand(
		buildConsoleCmd(&configPath),
		buildExecCmd(&configPath),
		buildListCmd(&configPath),
		buildPermsCmd(&configPath),
		buildDiscordCmd(&configPath),
		buildVersionCmd(),
	)
	return rootCmd
}
