package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"github.com/xwanai/shopify-sso-bridge/config"
	"github.com/xwanai/shopify-sso-bridge/internal/observability/statsd"
	"github.com/xwanai/shopify-sso-bridge/internal/ports"
)

// ReaperServiceOptions groups dependencies for ReaperService.
type ReaperServiceOptions struct {
	Events  ports.WebhookEventRecorder // Required: webhook event recorder
	Config  config.ReaperConfig        // Required: reaper configuration
	Logger  *slog.Logger               // Optional: structured logger
	Metrics statsd.Sink                // Optional: metrics sink (StatsD-compatible)
}

// ReaperService deletes processed webhook delivery records that have aged
// past the retention window. The records only exist to deduplicate platform
// redeliveries, so anything older than the retry horizon is dead weight.
type ReaperService struct {
	events  ports.WebhookEventRecorder
	config  config.ReaperConfig
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewReaperService constructs a new ReaperService.
func NewReaperService(opts ReaperServiceOptions) (*ReaperService, error) {
	if opts.Events == nil {
		return nil, errors.New("webhook event recorder is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "webhook_reaper")
		logger.Debug("ReaperService initialized",
			"interval", opts.Config.Interval,
			"webhook_event_max_age", opts.Config.WebhookEventMaxAge,
		)
	}

	return &ReaperService{
		events:  opts.Events,
		config:  opts.Config,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *ReaperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting webhook reaper", "interval", s.config.Interval)
	}

	// Add jitter to prevent thundering herd if multiple instances start together
	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run cleanup immediately after jitter
	s.runCleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "webhook reaper stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			s.runCleanup(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass and returns how many rows were
// pruned. Used by the admin CLI.
func (s *ReaperService) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.config.WebhookEventMaxAge)
	return s.events.PruneOlderThan(ctx, cutoff)
}

// waitWithJitter adds a random delay up to 10% of the interval to prevent thundering herd.
func (s *ReaperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// If crypto/rand fails, skip jitter rather than failing startup
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		// Graceful shutdown during jitter
	}
}

// runCleanup performs one retention pass. Errors are logged and do not stop
// the loop; the next tick retries.
func (s *ReaperService) runCleanup(ctx context.Context) {
	start := time.Now()

	deleted, err := s.RunOnce(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		s.metrics.Count("reaper.webhook_events_pruned", deleted, map[string]string{"result": result})
		s.metrics.Timing("reaper.duration", elapsed, nil)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "webhook event cleanup failed", "error", err, "elapsed", elapsed)
		}
		return
	}

	if s.logger != nil && deleted > 0 {
		s.logger.InfoContext(ctx, "pruned webhook events", "deleted", deleted, "elapsed", elapsed)
	}
}
