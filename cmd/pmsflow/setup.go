package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/service"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Show onboarding progress for this practice",
		RunE:  runSetup,
	}
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := config.Load()
	if err != nil {
		return err
	}

	store, err := initStateStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	progress, err := store.GetSetupProgress(ctx, settings.Domain)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Setup · " + settings.Domain))
	printStep("PMS export uploaded", progress.Steps[service.StepPMSConnected])
	printStep("Referral data approved", progress.Steps[service.StepDataApproved])

	if progress.Steps[service.StepPMSConnected] && progress.Steps[service.StepDataApproved] {
		fmt.Println()
		fmt.Println(cli.FormatSuccess("Setup complete."))
	}
	return nil
}

func printStep(label string, done bool) {
	if done {
		fmt.Printf("  %s %s\n", cli.StyleSuccess(cli.SuccessIcon), label)
		return
	}
	fmt.Printf("  %s %s\n", cli.SubtleStyle.Render("·"), cli.SubtleStyle.Render(label))
}
