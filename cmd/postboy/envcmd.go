package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/postboy/postboy/pkg/core"
	"github.com/postboy/postboy/pkg/storage"
)

func init() {
	envCmd.AddCommand(envListCmd, envSetCmd)
	rootCmd.AddCommand(envCmd)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Manage environments used for {{VAR}} substitution",
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listEnvironments(cmd.OutOrStdout(), core.FolderName)
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set NAME KEY=VALUE...",
	Short: "Set variables in an environment, creating it if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnvironment(cmd.OutOrStdout(), core.FolderName, args[0], args[1:])
	},
}

func listEnvironments(w io.Writer, baseDir string) error {
	names, err := storage.ListEnvironments(baseDir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(w, "No environments. Create one with: postboy env set NAME KEY=VALUE")
		return nil
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	return nil
}

func setEnvironment(w io.Writer, baseDir, name string, assignments []string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid environment name %q", name)
	}
	vars := make(map[string]string, len(assignments))
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid assignment %q (expected KEY=VALUE)", a)
		}
		vars[strings.TrimSpace(key)] = value
	}
	if err := storage.SetEnvironmentVars(baseDir, name, vars); err != nil {
		return err
	}
	fmt.Fprintf(w, "Updated %d variable(s) in environment %q\n", len(vars), name)
	return nil
}
