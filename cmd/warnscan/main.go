package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/warnscan/internal/version"
)

// logger is shared by all commands and writes to stderr
var logger = logrus.New()

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		// Handle custom exit codes from record and check
		var exitErr *CheckExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintf(os.Stderr, "Error: %s\n", exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "warnscan",
		Short: "warnscan - build warning aggregator",
		Long: `warnscan parses the reports of compilers and static analysis tools,
aggregates their issues per tool or into a single result, and evaluates
quality thresholds for CI pipelines.`,
		Version:           version.GetVersion(),
		PersistentPreRunE: setupEnvironment,
	}

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output (implies --log-level debug)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before the configuration")

	rootCmd.AddCommand(recordCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// setupEnvironment loads the env file and configures the logger
func setupEnvironment(cmd *cobra.Command, args []string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	levelName, _ := cmd.Flags().GetString("log-level")
	verbose, _ := cmd.Flags().GetBool("verbose")
	return configureLogger(levelName, verbose)
}

func configureLogger(levelName string, verbose bool) error {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	if verbose {
		level = logrus.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: !verbose,
	})
	return nil
}

func versionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			full, _ := cmd.Flags().GetBool("full")
			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			switch {
			case asJSON:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(version.Get())
			case full:
				fmt.Fprintln(out, version.GetFullVersion())
			default:
				fmt.Fprintf(out, "warnscan version %s\n", version.GetVersion())
			}
			return nil
		},
	}

	cmd.Flags().Bool("full", false, "Show detailed version information")
	cmd.Flags().Bool("json", false, "Print version information as JSON")
	return cmd
}
