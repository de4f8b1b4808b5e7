package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/postboy/postboy/pkg/logging"
	"github.com/postboy/postboy/pkg/server"
	"github.com/postboy/postboy/pkg/storage"
)

const serviceName = "postboy-server"

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collection store and proxy execution backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Service(serviceName, viper.GetString("log.level"))

		store, err := storage.NewFileStore(viper.GetString("server.data_dir"))
		if err != nil {
			log.Error().Stack().Err(err).Msg("Store unavailable")
			return err
		}

		cfg := server.Config{
			Addr:    viper.GetString("server.addr"),
			APIKey:  viper.GetString("server.api_key"),
			RPS:     viper.GetFloat64("server.rate_limit.rps"),
			Burst:   viper.GetInt("server.rate_limit.burst"),
			Timeout: viper.GetDuration("http.timeout"),
		}
		log.Info().
			Str("addr", cfg.Addr).
			Str("data_dir", viper.GetString("server.data_dir")).
			Bool("api_key", cfg.APIKey != "").
			Float64("rps", cfg.RPS).
			Int("burst", cfg.Burst).
			Msg("Postboy server starting")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.New(cfg, store, server.WithLogger(log)).Run(ctx); err != nil {
			log.Error().Stack().Err(err).Msg("HTTP server failed")
			return err
		}
		return nil
	},
}
