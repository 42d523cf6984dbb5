package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/giantswarm/sf-fields/internal/logging"
)

const repoSlug = "giantswarm/sf-fields"

var selfUpdateCheckOnly bool

func newSelfUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update sf-fields to the latest release",
		Long: `Checks GitHub for the latest sf-fields release and replaces the running
binary with it when it is newer than the installed version.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	cmd.Flags().BoolVar(&selfUpdateCheckOnly, "check", false, "Only report whether an update is available")
	return cmd
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(false, !noColor, false)

	if version == "" || version == "dev" {
		return fmt.Errorf("self-update is not available for development builds")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	logger.Info("Checking for updates...")
	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return fmt.Errorf("failed to detect latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", repoSlug)
	}

	if latest.LessOrEqual(version) {
		logger.Success("sf-fields %s is up to date", version)
		return nil
	}
	if selfUpdateCheckOnly {
		logger.Info("Version %s is available (installed: %s)", latest.Version(), version)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	logger.Info("Updating to %s...", latest.Version())
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("failed to update binary: %w", err)
	}
	logger.Success("Updated to %s", latest.Version())
	return nil
}
