package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/termchat-server/internal/app"
	"github.com/vovakirdan/termchat-server/internal/config"
	"github.com/vovakirdan/termchat-server/internal/log"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	root := &cobra.Command{
		Use:           "termchat-server",
		Short:         "Real-time multi-room chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New("info", "console")

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				bootLogger.Error().Err(err).Str("path", path).Msg("load config")
				return err
			}
			cfg.UpdateFrom(overrides)
			if err := cfg.Validate(); err != nil {
				bootLogger.Error().Err(err).Msg("invalid config")
				return err
			}

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().Str("config", path).Str("version", version).Msg("starting termchat server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("init app")
				return err
			}
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config.yaml (default: ./config.yaml or $TERMCHAT_CONFIG_DEFAULT_PATH)")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite database path")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return root
}
