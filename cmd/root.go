package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amorlias/storefront/internal/config"
	"github.com/amorlias/storefront/internal/constants"
	"github.com/amorlias/storefront/internal/log"
	"github.com/amorlias/storefront/internal/otel"
)

func Start() {
	bootLogger := log.InitLogger("/var/log/storefront.log").
		With().
		Str(log.KeyAppName, constants.AppName).
		Str(log.KeyTag, "main Start").
		Logger()

	bootLogger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	bootLogger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = bootLogger.WithContext(c)

	bootLogger.Info().Str(log.KeyProcess, "init config").Msg("initializing config")
	cfg := config.InitConfig(c, constants.AppName)
	bootLogger.Info().Str(log.KeyProcess, "init config").Msg("initialized config")

	if cfg.Otel.Endpoint != "" {
		otelShutdowns, err := otel.InitOtelSdk(c, constants.AppName, cfg.Otel.Endpoint)
		if err != nil {
			bootLogger.Error().Err(err).Msg("failed initializing otel sdk, continuing without tracing")
		}
		defer func() {
			if err := otel.ShutdownOtel(c, otelShutdowns); err != nil {
				bootLogger.Error().Err(err).Msg("failed shutting down otel")
			}
		}()
	}

	app, err := newApp(c, cfg)
	if err != nil {
		bootLogger.Fatal().Err(err).Msgf("error initializing application=%s", err.Error())
	}

	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Amorlias storefront client",
	}
	rootCmd.AddCommand(
		authCommand(app),
		cartCommand(app),
		wishlistCommand(app),
		catalogCommand(app),
		checkoutCommand(app),
		ordersCommand(app),
		adminCommand(app),
	)
	if err := rootCmd.ExecuteContext(c); err != nil {
		bootLogger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
