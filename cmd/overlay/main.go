package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-overlay/internal/config"
	"github.com/vovakirdan/wirechat-overlay/internal/log"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	envFile    string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "overlay",
	Short: "Live chat overlay for streaming software",
	Long: "overlay reads chat events from an upstream socket and serves a browser\n" +
		"source that shows each message for a limited time.",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then config file and environment.
func loadConfig() (config.Config, *zerolog.Logger, error) {
	bootLogger := log.New("info")

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			bootLogger.Warn().Err(err).Str("path", envFile).Msg("failed to load env file")
		}
	}

	cfg, path, err := config.Load(bootLogger, configPath)
	if err != nil {
		return cfg, bootLogger, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger := log.NewWithFormat(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}
