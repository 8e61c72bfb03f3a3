package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/bus"
	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/editor"
	"github.com/chairside/pmsflow/internal/service"
	"github.com/chairside/pmsflow/internal/tui"
)

func submitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Enter and submit referral data by hand",
		Long: `Open the manual entry editor, starting from the previous calendar month.
Submitted data bypasses the automation pipeline entirely; nothing is queued
for approval.`,
		RunE: runSubmit,
	}

	cmd.Flags().String("location", "", "location id to attribute the data to")

	return cmd
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	settings, err := config.Load()
	if err != nil {
		return err
	}

	location, _ := cmd.Flags().GetString("location")
	if location == "" {
		location = settings.LocationID
	}

	gw, err := initGateway(settings)
	if err != nil {
		return err
	}

	store, err := initStateStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	session := editor.NewManualSession(time.Now())

	saved, err := tui.Run(ctx, tui.Config{
		Session:    session,
		Gateway:    gw,
		Logger:     slog.Default(),
		Title:      "Manual Referral Entry · " + settings.Domain,
		Domain:     settings.Domain,
		LocationID: location,
	})
	if err != nil {
		return err
	}
	if !saved {
		fmt.Println(cli.FormatInfo("Nothing submitted."))
		return nil
	}

	if err := store.SetSetupStep(ctx, settings.Domain, service.StepDataApproved, true); err != nil {
		slog.Warn("failed to record setup progress", "error", err)
	}

	if events, cleanup, err := initEventBus(settings); err != nil {
		slog.Warn("event bus unavailable, skipping broadcast", "error", err)
	} else {
		events.Publish(ctx, bus.NewJobUploaded(settings.Domain, bus.EntryManual))
		cleanup()
	}

	fmt.Println(cli.FormatSuccess("Referral data submitted."))
	return nil
}
