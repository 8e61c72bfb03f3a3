package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/gateway"
	"github.com/chairside/pmsflow/internal/model"
	"github.com/chairside/pmsflow/internal/poller"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow ingestion jobs until they finish",
		Long: `Poll the backend for automation progress, printing each status change.
A job parked on client approval suspends polling until it moves; jobs
started elsewhere are picked up automatically.`,
		RunE: runWatch,
	}

	cmd.Flags().String("job", "", "job id to track (default: discover active jobs)")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	jobID, _ := cmd.Flags().GetString("job")

	settings, err := config.Load()
	if err != nil {
		return err
	}

	gw, err := initGateway(settings)
	if err != nil {
		return err
	}

	store, err := initStateStore(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	events, cleanup, err := initEventBus(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := cli.NewInterruptHandler(os.Stdout)
	ctx := handler.HandleInterrupts(cmd.Context(), true)

	watcher := poller.New(gw, store, events, poller.Config{Domain: settings.Domain}, poller.Hooks{
		OnTransition: func(jobID string, from, to model.AutomationStatus) {
			line := fmt.Sprintf("%s: %s → %s", jobID, describeStatus(from), describeStatus(to))
			fmt.Println(cli.FormatInfo(line))
			if to.AwaitingClientApproval() {
				fmt.Println(cli.FormatWarning("Waiting on your approval. Run 'pmsflow review' in another terminal."))
			}
		},
		OnCompleted: func(jobID string, data *gateway.KeyData) {
			fmt.Println(cli.FormatSuccess("Job " + jobID + " completed."))
			if data != nil {
				fmt.Print(monthTable(data.Months))
			}
		},
		OnPromoted: func(job model.Job) {
			fmt.Println(cli.FormatInfo("Tracking job " + job.ID + " started elsewhere."))
		},
	})

	if jobID != "" {
		watcher.TrackJob(jobID)
	}

	if err := watcher.Start(); err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle("Watching " + settings.Domain))
	<-ctx.Done()
	watcher.Stop()

	return nil
}

func describeStatus(s model.AutomationStatus) string {
	if s.Status == "" {
		return "unknown"
	}
	if s.CurrentStep != "" {
		return fmt.Sprintf("%s (%s)", s.Status, s.CurrentStep)
	}
	return string(s.Status)
}
