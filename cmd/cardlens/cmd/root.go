// Package cmd implements the cardlens command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cardlens/cardlens/internal/config"
	"github.com/cardlens/cardlens/internal/version"
)

var (
	configLoader *config.Loader
	globalConfig *config.Config
	cfgFile      string
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "cardlens",
	Short: "Business card scanning and contact extraction",
	Long: `cardlens recognizes text on business card images, extracts contact
fields (name, company, email, phone, website), and manages the
resulting cards.

This tool provides:
- Single-image and batch card scanning
- Structured field extraction with heuristic or OpenAI parsing
- QR code contact import (vCard / MeCard)
- PDF card-sheet processing
- An HTTP server mode with websocket batch progress

Examples:
  cardlens scan card.jpg
  cardlens scan card.jpg --card --format json
  cardlens batch ./scans --recursive --format csv
  cardlens pdf sheet.pdf --pages 1-3
  cardlens serve --port 8080`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			ver, commit, date := version.Info()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cardlens %s (commit: %s, built: %s)\n", ver, commit, date)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/cardlens, /etc/cardlens)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("engine", "", "recognition engine id (default: first available)")
	rootCmd.PersistentFlags().StringSlice("language", nil, "preferred recognition languages in priority order")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("engine.id", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("engine.languages", rootCmd.PersistentFlags().Lookup("language"))

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if globalConfig == nil {
			initConfig()
		}

		logLevel := slog.LevelInfo
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	}
}

func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the effective configuration, including flag overrides.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}
	// Re-unmarshal so that flags bound after the initial load are applied.
	var cfg config.Config
	if err := configLoader.Viper().Unmarshal(&cfg); err != nil {
		return globalConfig
	}
	return &cfg
}
