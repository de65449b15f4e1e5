package cmd

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hugo-lorenzo-mato/jira-refiner/internal/adapters/jira"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/adapters/openai"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/api"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/config"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/events"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/logging"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/service/issues"
	"github.com/hugo-lorenzo-mato/jira-refiner/internal/tasks"
)

// app holds the wired relay.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	bus     *events.EventBus
	runner  *tasks.Runner
	server  *api.Server
	monitor *monitor
}

func newApp(cfg *config.Config, logger *logging.Logger) *app {
	bus := events.New(cfg.Tasks.EventBuffer)
	runner := tasks.NewRunner(tasks.Options{
		Timeout: cfg.Tasks.Timeout,
		Bus:     bus,
		Logger:  logger,
	})

	refiner := openai.New(openai.Config{
		Token:        cfg.OpenAI.Token,
		BaseURL:      cfg.OpenAI.BaseURL,
		Model:        cfg.OpenAI.Model,
		Temperature:  cfg.OpenAI.Temperature,
		Timeout:      cfg.OpenAI.Timeout,
		MaxRetries:   cfg.OpenAI.MaxRetries,
		SystemPrompt: issues.SystemPrompt,
	}, logger)

	tracker := jira.New(jira.Config{
		URL:     cfg.Jira.URL,
		Email:   cfg.Jira.Email,
		Token:   cfg.Jira.Token,
		Timeout: cfg.Jira.Timeout,
	}, logger)

	intake := issues.NewIntake(refiner, issues.NewUpdater(tracker, logger), runner, bus, logger)

	server := api.NewServer(intake,
		api.WithLogger(logger),
		api.WithAPIToken(cfg.Auth.APIToken),
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
		api.WithTimeouts(cfg.Server.ReadHeaderTimeout, cfg.Server.ShutdownTimeout),
	)

	return &app{
		cfg:     cfg,
		logger:  logger,
		bus:     bus,
		runner:  runner,
		server:  server,
		monitor: newMonitor(bus, logger),
	}
}

// run serves until ctx is cancelled, then drains background updates.
func (a *app) run(ctx context.Context, ln net.Listener) error {
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		a.monitor.run()
	}()

	serveErr := a.server.Serve(ctx, ln)

	a.logger.Info("draining background tasks",
		"in_flight", a.runner.InFlight(),
		"timeout", a.cfg.Tasks.ShutdownTimeout,
	)
	drainCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Tasks.ShutdownTimeout)
	defer cancel()
	drainErr := a.runner.Wait(drainCtx)
	if drainErr != nil {
		a.logger.Warn("background tasks abandoned", "error", drainErr)
	}

	a.bus.Close()
	select {
	case <-monitorDone:
	case <-time.After(time.Second):
	}
	a.monitor.logSummary()

	if serveErr != nil {
		return fmt.Errorf("serving: %w", serveErr)
	}
	return drainErr
}
