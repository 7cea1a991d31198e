package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/thellimist/lanemeta/internal/config"
)

var appVersion = "dev"

func SetVersion(v string) {
	appVersion = v
}

var (
	flagConfig  string
	flagEnvFile string
	flagVerbose bool
	flagQuiet   bool
)

// logger is set up by the root command before any subcommand runs.
var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "lanemeta",
	Short: "Generate tool metadata from fastlane option sources",
	Long: `lanemeta reads the option declarations of fastlane tools and actions
(options.rb sources) and synthesizes the metadata document consumed by a
CLI wrapper generator.`,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "YAML config file (default ./"+config.DefaultFile+" when present)")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "dotenv file loaded before running (missing file is ignored)")
	pf.BoolVar(&flagVerbose, "verbose", false, "show detailed progress")
	pf.BoolVar(&flagQuiet, "quiet", false, "suppress all output except warnings and errors")

	rootCmd.AddCommand(generateCmd, refsCmd, serveCmd)
}

func Execute() error {
	rootCmd.Version = appVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("lanemeta v%s\n", appVersion))
	return rootCmd.Execute()
}

// setup validates the shared flags, loads the dotenv file and installs the
// logger.
func setup(cmd *cobra.Command, _ []string) error {
	if flagVerbose && flagQuiet {
		return fmt.Errorf("--verbose and --quiet cannot be used together")
	}

	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", flagEnvFile, err)
		}
	}

	level := slog.LevelInfo
	switch {
	case flagVerbose:
		level = slog.LevelDebug
	case flagQuiet:
		level = slog.LevelWarn
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// loadConfig reads the config file selected by --config, or the default file
// when present.
func loadConfig() (*config.Config, error) {
	return config.Discover(flagConfig)
}
