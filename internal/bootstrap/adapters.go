package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/xwanai/shopify-sso-bridge/config"
	"github.com/xwanai/shopify-sso-bridge/internal/adapters/reaper"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
)

// WebhookReaperConfig contains configuration for the webhook event reaper.
type WebhookReaperConfig struct {
	DB      *sql.DB
	Logger  *slog.Logger
	Config  config.ReaperConfig
	Metrics *statsd.Client
}

// RunWebhookReaper starts the webhook event reaper loop and blocks until
// the context is cancelled.
func RunWebhookReaper(ctx context.Context, cfg WebhookReaperConfig) error {
	runner, err := reaper.NewRunner(reaper.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return fmt.Errorf("create webhook reaper runner: %w", err)
	}

	return runner.Run(ctx)
}
