package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/bus"
	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/service"
)

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a PMS export for automated extraction",
		Long: `Upload a raw practice management system export. The backend queues an
ingestion job; follow it with 'pmsflow watch'. A processing flag is kept
locally so other commands know an upload is in flight.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}

	cmd.Flags().String("pms", "", "PMS type of the export (default: practice.pms_type from config)")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	settings, err := config.Load()
	if err != nil {
		return err
	}

	pmsType, _ := cmd.Flags().GetString("pms")
	if pmsType == "" {
		pmsType = settings.PMSType
	}
	if pmsType == "" {
		return fmt.Errorf("PMS type is required: pass --pms or set practice.pms_type")
	}

	gw, err := initGateway(settings)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat export: %w", err)
	}

	bar := progressbar.DefaultBytes(info.Size(), "Uploading "+filepath.Base(path))
	reader := io.TeeReader(file, bar)

	if err := gw.UploadPMSFile(ctx, settings.Domain, pmsType, filepath.Base(path), reader); err != nil {
		return err
	}
	_ = bar.Finish()

	events, cleanup, err := initEventBus(settings)
	if err != nil {
		slog.Warn("upload event not forwarded", "error", err)
	} else {
		events.Publish(ctx, bus.NewJobUploaded(settings.Domain, bus.EntryPMSUpload))
		cleanup()
	}

	store, err := initStateStore(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SetProcessingFlag(ctx, settings.Domain, time.Now()); err != nil {
		return err
	}
	if err := store.SetSetupStep(ctx, settings.Domain, service.StepPMSConnected, true); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Upload accepted. Run 'pmsflow watch' to follow extraction."))
	return nil
}
