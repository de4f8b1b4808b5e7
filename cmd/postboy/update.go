package main

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/charmbracelet/huh"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"
)

const releaseSlug = "postboy/postboy"

func init() {
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update Postboy to the latest version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if version == "dev" {
			fmt.Println("You are running a development version of Postboy. Update is not supported.")
			return nil
		}

		latest, found, err := selfupdate.DetectLatest(releaseSlug)
		if err != nil {
			return fmt.Errorf("detecting latest version: %w", err)
		}

		v, err := semver.Parse(version)
		if err != nil {
			return fmt.Errorf("parsing current version %q: %w", version, err)
		}

		if !found || latest.Version.LTE(v) {
			fmt.Println("Current version is the latest")
			return nil
		}

		ok := false
		if err := huh.NewConfirm().
			Title(fmt.Sprintf("Update to %s?", latest.Version)).
			Value(&ok).
			Run(); err != nil {
			return err
		}
		if !ok {
			return nil
		}

		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("could not locate executable path: %w", err)
		}
		if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
			return fmt.Errorf("updating binary: %w", err)
		}
		fmt.Println("Successfully updated to version", latest.Version)
		return nil
	},
}
