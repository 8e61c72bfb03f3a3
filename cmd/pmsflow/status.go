package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/model"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current ingestion and approval status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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

	fmt.Println(cli.FormatTitle("Status · " + settings.Domain))

	stats := keyData.Stats
	if stats.LatestJobID == "" {
		fmt.Println(cli.SubtleStyle.Render("No ingestion jobs yet."))
	} else {
		fmt.Printf("Latest job:    %s\n", stats.LatestJobID)
		fmt.Printf("Status:        %s\n", styleJobStatus(stats.LatestJobStatus))
		fmt.Printf("Uploaded:      %s\n", stats.LatestJobTimestamp.Format(time.RFC1123))
		fmt.Printf("Approved:      %s\n", yesNo(stats.LatestJobIsApproved))
		fmt.Printf("Client signed: %s\n", yesNo(stats.LatestJobIsClientApproved))
	}

	jobs, err := gw.GetActiveJobs(ctx, settings.Domain)
	if err != nil {
		return err
	}

	if len(jobs) > 0 {
		fmt.Println()
		fmt.Println(cli.BoldStyle.Render("Active jobs"))
		for _, job := range jobs {
			status, statusErr := gw.GetAutomationStatus(ctx, job.ID)
			if statusErr != nil {
				fmt.Printf("  %s  %s\n", job.ID, cli.StyleError("status unavailable"))
				continue
			}
			line := fmt.Sprintf("  %s  %s", job.ID, styleJobStatus(string(status.Status)))
			if status.AwaitingClientApproval() {
				line += cli.StyleWarning("  ← run 'pmsflow review' to approve")
			}
			fmt.Println(line)
		}
	}

	if store, storeErr := initStateStore(ctx, settings); storeErr == nil {
		if flag, flagErr := store.GetProcessingFlag(ctx, settings.Domain); flagErr == nil && flag != nil {
			fmt.Println()
			fmt.Println(cli.FormatInfo(fmt.Sprintf("Upload from %s still processing.",
				flag.UploadedAt.Local().Format(time.RFC1123))))
		}
		_ = store.Close()
	}

	return nil
}

func styleJobStatus(status string) string {
	switch model.AutomationState(status) {
	case model.StateCompleted:
		return cli.StyleSuccess(status)
	case model.StateFailed:
		return cli.StyleError(status)
	case model.StateAwaitingApproval:
		return cli.StyleWarning(status)
	default:
		return cli.StyleInfo(status)
	}
}

func yesNo(b bool) string {
	if b {
		return cli.StyleSuccess("yes")
	}
	return cli.SubtleStyle.Render("no")
}
