// Package reaper provides an adapter for running the webhook event reaper.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xwanai/shopify-sso-bridge/config"
	"github.com/xwanai/shopify-sso-bridge/internal/data"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
	"github.com/xwanai/shopify-sso-bridge/internal/ports"
	"github.com/xwanai/shopify-sso-bridge/internal/service"
)

// Runner provides a simple adapter to run the reaper loop.
// It constructs the reaper service and runs the cleanup loop.
type Runner struct {
	reaper *service.ReaperService
	logger *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.ReaperConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Events  ports.WebhookEventRecorder
	Metrics statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	reaper, err := wireReaperService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire reaper service: %w", err)
	}

	return &Runner{
		reaper: reaper,
		logger: opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Events == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// wireReaperService wires up all dependencies for the reaper service.
func wireReaperService(opts RunnerOptions) (*service.ReaperService, error) {
	events := opts.Events
	if events == nil {
		events = data.NewWebhookEventRepo(opts.DB)
	}

	return service.NewReaperService(service.ReaperServiceOptions{
		Events:  events,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting webhook reaper runner")
	return r.reaper.Run(ctx)
}

// RunOnce performs a single cleanup pass and returns the number of pruned
// delivery records. Used by the admin CLI.
func (r *Runner) RunOnce(ctx context.Context) (int64, error) {
	return r.reaper.RunOnce(ctx)
}
