// Package main provides the Conduit scheduler service: the due index poller
// plus the dispatchers it feeds.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/conduitcrm/conduit/pkg/dispatcher"
	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/protocol"
	"github.com/conduitcrm/conduit/pkg/scheduler"
)

type SchedulerManager struct {
	logger *slog.Logger
	poller *scheduler.Poller
}

func NewSchedulerManager(
	persistence persistence.Persistence,
	dueIndex dueindex.Index,
	eventBus eventbus.EventBus,
	provider protocol.ChannelProvider,
	logger *slog.Logger,
) *SchedulerManager {
	campaigns := dispatcher.NewCampaignDispatcher(persistence, provider, eventBus, dueIndex, logger)
	reminders := dispatcher.NewReminderDispatcher(persistence, provider, eventBus, logger)
	runs := dispatcher.NewRunResumer(persistence, eventBus, logger)

	poller := scheduler.NewPoller(dueIndex, logger)
	poller.Handle(dispatcher.CampaignKeyPrefix, campaigns.Dispatch)
	poller.Handle(dispatcher.ReminderKeyPrefix, reminders.Dispatch)
	poller.Handle(dispatcher.RunKeyPrefix, runs.Dispatch)

	return &SchedulerManager{
		logger: logger.With("module", "conduit-scheduler"),
		poller: poller,
	}
}

func (m *SchedulerManager) Start(ctx context.Context) error {
	if err := m.poller.Start(ctx); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "Scheduler started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	m.logger.InfoContext(ctx, "Shutting down scheduler")

	return m.poller.Stop(ctx)
}
