package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/common"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/editor"
	"github.com/chairside/pmsflow/internal/service"
	"github.com/chairside/pmsflow/internal/tui"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review and approve the latest extracted referral data",
		Long: `Open the latest ingestion job's extracted months for correction. Saving
writes the edited data back onto the job and then records client approval;
if the save fails, approval is never attempted.`,
		RunE: runReview,
	}

	cmd.Flags().Bool("approve", true, "record client approval after a successful save")

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	approve, _ := cmd.Flags().GetBool("approve")

	settings, err := config.Load()
	if err != nil {
		return err
	}

	gw, err := initGateway(settings)
	if err != nil {
		return err
	}

	keyData, err := gw.GetLatestKeyData(ctx, settings.Domain)
	if err != nil {
		return err
	}

	if keyData.Stats.LatestJobID == "" {
		return common.ErrNoActiveJob
	}
	if keyData.Stats.LatestJobIsClientApproved {
		return fmt.Errorf("%w: job %s is already approved", common.ErrJobNotEditable, keyData.Stats.LatestJobID)
	}

	session := editor.NewReviewSession()
	session.Hydrate(keyData.LatestJobRaw)

	saved, err := tui.Run(ctx, tui.Config{
		Session: session,
		Gateway: gw,
		Logger:  slog.Default(),
		Title:   "Review Extracted Data · " + settings.Domain,
		Domain:  settings.Domain,
		JobID:   keyData.Stats.LatestJobID,
		Approve: approve,
	})
	if err != nil {
		return err
	}
	if !saved {
		fmt.Println(cli.FormatInfo("Review closed without saving."))
		return nil
	}

	if approve {
		store, storeErr := initStateStore(ctx, settings)
		if storeErr == nil {
			if err := store.SetSetupStep(ctx, settings.Domain, service.StepDataApproved, true); err != nil {
				slog.Warn("failed to record setup progress", "error", err)
			}
			_ = store.Close()
		} else {
			slog.Warn("failed to open state store", "error", storeErr)
		}
		fmt.Println(cli.FormatSuccess("Saved and approved."))
		return nil
	}

	fmt.Println(cli.FormatSuccess("Saved without approval."))
	return nil
}
