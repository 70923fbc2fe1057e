// Package main provides the terminal entry point for the language tutor.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"tutorapp/cmd/tutor/commands"
	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	"tutorapp/internal/services"
	contextutils "tutorapp/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	// A missing .env is fine
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs would interleave with the conversation, keep only errors
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "tutor-cli", observability.ParseLevel(cfg.Server.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "tutor",
		Short: "Language practice with a generative tutor",
		Long: `Language practice with a generative tutor.

The tutor asks questions in the language you are learning and critiques your answers,
keeping score as you go.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.PracticeCommand(cfg, logger, services.NewOracle))
	rootCmd.AddCommand(commands.ParseCommand())
	rootCmd.AddCommand(commands.VersionCommand())

	err = rootCmd.ExecuteContext(ctx)

	if shutdownErr := observability.ShutdownProviders(ctx, tp, mp, logger); shutdownErr != nil {
		logger.Warn(ctx, "Error shutting down telemetry providers", map[string]interface{}{"error": shutdownErr.Error()})
	}

	if err != nil {
		if !errors.Is(err, contextutils.ErrMissingCredential) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
