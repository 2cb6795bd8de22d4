package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-overlay/internal/app"
	"github.com/vovakirdan/wirechat-overlay/internal/config"
)

var serveOverrides config.Config

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the chat socket and serve the overlay",
	RunE:  runServe,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		flags := cmd.Flags()
		flags.StringVar(&serveOverrides.Addr, "addr", "", "HTTP listen address")
		flags.StringVar(&serveOverrides.Upstream.URL, "upstream", "", "upstream chat socket url (ws:// or wss://)")
		flags.DurationVar(&serveOverrides.Overlay.MessageTTL, "ttl", 0, "how long a message stays visible")
		flags.IntVar(&serveOverrides.Overlay.MaxVisible, "max-visible", 0, "cap on visible messages (0 = no cap)")
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.UpdateFrom(serveOverrides)

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.Addr).Str("version", Version).Msg("starting chat overlay")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("overlay exited with error")
		return err
	}
	logger.Info().Msg("overlay stopped")
	return nil
}
