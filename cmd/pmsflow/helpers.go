package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chairside/pmsflow/internal/bus"
	"github.com/chairside/pmsflow/internal/cli"
	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/gateway"
	"github.com/chairside/pmsflow/internal/service"
	"github.com/chairside/pmsflow/internal/state"
	"github.com/chairside/pmsflow/internal/wire"
)

// initGateway builds the backend client from resolved settings.
func initGateway(settings *config.Settings) (*gateway.Client, error) {
	return gateway.NewClient(gateway.Config{
		BaseURL: settings.GatewayURL,
		APIKey:  settings.APIKey,
		Timeout: settings.GatewayTimeout,
	})
}

// initStateStore opens the local state database and brings the schema up to
// date.
func initStateStore(ctx context.Context, settings *config.Settings) (service.StateStore, error) {
	store, err := state.NewSQLiteStore(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEventBus builds the in-process event bus, attaching the AMQP forwarder
// when a broker is configured.
func initEventBus(settings *config.Settings) (*bus.Bus, func(), error) {
	events := bus.New()

	if settings.AMQPURL == "" {
		return events, func() {}, nil
	}

	forwarder, err := bus.NewAMQPForwarder(settings.AMQPURL, settings.AMQPExchange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect event forwarder: %w", err)
	}
	events.AttachForwarder(forwarder)

	cleanup := func() {
		if closeErr := forwarder.Close(); closeErr != nil {
			slog.Warn("failed to close event forwarder", "error", closeErr)
		}
	}
	return events, cleanup, nil
}

// monthTable renders backend month records as a summary table.
func monthTable(months []wire.MonthEntryForm) string {
	lines := make([]cli.MonthLine, 0, len(months))
	for _, month := range months {
		lines = append(lines, cli.MonthLine{
			Month:           month.Month,
			SelfReferrals:   month.SelfReferrals,
			DoctorReferrals: month.DoctorReferrals,
			TotalReferrals:  month.TotalReferrals,
			ProductionTotal: month.ProductionTotal,
		})
	}
	return cli.RenderMonthTable(lines)
}
