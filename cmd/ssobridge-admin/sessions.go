package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	redisadapter "github.com/xwanai/shopify-sso-bridge/internal/adapters/redis"
)

type sessionRevokeOptions struct {
	SessionID string
	Yes       bool
}

type sessionRevokeConfirmOptions struct {
	opts   sessionRevokeOptions
	target string
}

func (s sessionRevokeConfirmOptions) IsDryRun() bool { return false }
func (s sessionRevokeConfirmOptions) IsYes() bool    { return s.opts.Yes }
func (s sessionRevokeConfirmOptions) GetWarning() string {
	return "WARNING: this will immediately log the customer out of the bridge."
}
func (s sessionRevokeConfirmOptions) GetTarget() string { return s.target }

func runSessionRevoke(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionRevokeFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, time.Minute)
	defer cancel()

	redisClient, err := connectSessionRedis(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	store := redisadapter.NewSessionStore(redisClient)

	sess, err := store.Get(ctx, opts.SessionID)
	if err != nil {
		if errors.Is(err, redisadapter.ErrNotFound) {
			if writeErr := writef(os.Stdout, "Session %q not found (already expired or revoked)\n", opts.SessionID); writeErr != nil {
				return fmt.Errorf("print session not found: %w", writeErr)
			}
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}

	confirmOpts := sessionRevokeConfirmOptions{
		opts:   opts,
		target: fmt.Sprintf("session %q (customer %s)", sess.ID, sess.Email),
	}
	if confirmErr := confirmAction(confirmOpts, "revoke session"); confirmErr != nil {
		return confirmErr
	}

	if deleteErr := store.Delete(ctx, opts.SessionID); deleteErr != nil {
		return fmt.Errorf("delete session: %w", deleteErr)
	}

	cmdCtx.Logger.Info("session revoked", "session_id", sess.ID, "email", sess.Email)
	if writeErr := writef(os.Stdout, "Revoked session %q for %s\n", sess.ID, sess.Email); writeErr != nil {
		return fmt.Errorf("print revoke summary: %w", writeErr)
	}
	return nil
}

func parseSessionRevokeFlags(args []string) (sessionRevokeOptions, error) {
	fs := flag.NewFlagSet("session-revoke", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionRevokeOptions
	fs.StringVar(&opts.SessionID, "session-id", "", "Session ID to revoke (required)")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return sessionRevokeOptions{}, err
	}

	opts.SessionID = strings.TrimSpace(opts.SessionID)
	if opts.SessionID == "" {
		return sessionRevokeOptions{}, errors.New("--session-id is required")
	}

	return opts, nil
}
