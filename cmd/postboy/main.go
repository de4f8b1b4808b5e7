package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/logging"
)

// version is set at build time.
var version = "dev"

var (
	cfgFile string
	logger  = zerolog.Nop()
	rootCmd = &cobra.Command{
		Use:   "postboy",
		Short: "Postboy - compose, send and save HTTP requests from your terminal",
		Long: `Postboy composes HTTP requests, sends them directly or through a proxy
execution endpoint, and keeps them in collections on a store server.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .postboy/config.json)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(core.FolderName)
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	setDefaults()
	viper.SetEnvPrefix("POSTBOY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

func setDefaults() {
	d := core.DefaultConfig()
	viper.SetDefault("store_url", d.StoreURL)
	viper.SetDefault("api_key", d.APIKey)
	viper.SetDefault("proxy_url", d.ProxyURL)
	viper.SetDefault("routing.direct_origins", d.Routing.DirectOrigins)
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.data_dir", d.Server.DataDir)
	viper.SetDefault("server.rate_limit.rps", d.Server.RateLimit.RPS)
	viper.SetDefault("server.rate_limit.burst", d.Server.RateLimit.Burst)
	viper.SetDefault("log.level", d.Log.Level)
}

// setup runs before every command: .env, the .postboy folder and logging.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
	}

	if err := core.InitializeFolder("."); err != nil {
		return fmt.Errorf("initializing config folder: %w", err)
	}

	// first run writes config.json after the initial read
	_ = viper.ReadInConfig()

	logger = logging.Console(os.Stderr, viper.GetString("log.level"))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
