package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xwanai/shopify-sso-bridge/internal/adapters/reaper"
)

const defaultPruneTimeout = 2 * time.Minute

type webhooksPruneOptions struct {
	Timeout time.Duration
	MaxAge  time.Duration
}

func runWebhooksPrune(cmdCtx *commandContext, args []string) error {
	opts, err := parseWebhooksPruneFlags(args)
	if err != nil {
		return err
	}

	reaperCfg := cmdCtx.Config.Reaper
	if opts.MaxAge > 0 {
		reaperCfg.WebhookEventMaxAge = opts.MaxAge
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		runner, runnerErr := reaper.NewRunner(reaper.RunnerOptions{
			DB:     db,
			Config: reaperCfg,
			Logger: cmdCtx.Logger,
		})
		if runnerErr != nil {
			return fmt.Errorf("build reaper runner: %w", runnerErr)
		}

		pruned, pruneErr := runner.RunOnce(ctx)
		if pruneErr != nil {
			return fmt.Errorf("prune webhook deliveries: %w", pruneErr)
		}

		if writeErr := writef(
			os.Stdout,
			"Pruned %d webhook delivery records older than %s\n",
			pruned,
			reaperCfg.WebhookEventMaxAge,
		); writeErr != nil {
			return fmt.Errorf("print prune summary: %w", writeErr)
		}
		return nil
	})
}

func parseWebhooksPruneFlags(args []string) (webhooksPruneOptions, error) {
	fs := flag.NewFlagSet("webhooks-prune", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := webhooksPruneOptions{
		Timeout: defaultPruneTimeout,
	}

	fs.DurationVar(
		&opts.Timeout,
		"timeout",
		defaultPruneTimeout,
		"Maximum duration to wait for the prune pass to complete",
	)
	fs.DurationVar(
		&opts.MaxAge,
		"max-age",
		0,
		"Override the configured delivery record retention window",
	)

	if err := fs.Parse(args); err != nil {
		return webhooksPruneOptions{}, err
	}

	if opts.Timeout <= 0 {
		return webhooksPruneOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.MaxAge < 0 {
		return webhooksPruneOptions{}, errors.New("--max-age must not be negative")
	}

	return opts, nil
}
