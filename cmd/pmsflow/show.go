package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/editor"
	"github.com/chairside/pmsflow/internal/tui"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Browse approved referral data read-only",
		RunE:  runShow,
	}

	cmd.Flags().Bool("table", false, "print a summary table instead of opening the viewer")

	return cmd
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	table, _ := cmd.Flags().GetBool("table")

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

	session := editor.NewViewerSession()
	session.Hydrate(keyData.Months)

	if table {
		lines := make([]cli.MonthLine, 0, len(session.Months()))
		for _, bucket := range session.Months() {
			summary := session.Summary(bucket.ID)
			lines = append(lines, cli.MonthLine{
				Month:           bucket.Month,
				SelfReferrals:   summary.SelfReferrals,
				DoctorReferrals: summary.DoctorReferrals,
				TotalReferrals:  summary.TotalReferrals,
				ProductionTotal: summary.ProductionTotal,
			})
		}
		fmt.Println(cli.FormatTitle("Referral Data · " + settings.Domain))
		fmt.Print(cli.RenderMonthTable(lines))
		return nil
	}

	_, err = tui.Run(ctx, tui.Config{
		Session: session,
		Gateway: gw,
		Title:   "Referral Data · " + settings.Domain,
		Domain:  settings.Domain,
	})
	return err
}
