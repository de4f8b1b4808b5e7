package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/postboy/postboy/pkg/auth"
)

func init() {
	authCmd.AddCommand(authJWTCmd, authBasicCmd, authTokenCmd)
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Inspect credentials and fetch OAuth2 tokens",
}

var authJWTCmd = &cobra.Command{
	Use:   "jwt TOKEN",
	Short: "Decode a JWT without verifying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claims, err := auth.ParseJWT(args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(map[string]any{
			"header":  claims.Header,
			"payload": claims.Payload,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var authBasicCmd = &cobra.Command{
	Use:   "basic HEADER",
	Short: `Decode a "Basic ..." Authorization value`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, pass, err := auth.DecodeBasic(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "username: %s\npassword: %s\n", user, pass)
		return nil
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch a client_credentials token using the auth.oauth2 settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg auth.ClientCredentialsConfig
		if err := viper.UnmarshalKey("auth.oauth2", &cfg); err != nil {
			return fmt.Errorf("reading auth.oauth2: %w", err)
		}
		header, err := auth.ClientCredentials(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", header.Key, header.Value)
		return nil
	},
}
