// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sackofdump/pcompass/cmd/app/commands"
)

var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "pcompass",
		Usage:   "Token authentication, entitlement and rate limiting service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "revoke-sessions",
				Usage: "Invalidate every outstanding auth token for a user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user-id",
						Aliases:  []string{"u"},
						Usage:    "ID of the user whose sessions should be revoked",
						Required: true,
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRevokeSessions(ctx, cmd.String("user-id"))
				},
			},
			{
				Name:  "prune-rate-limit-events",
				Usage: "Delete rate limit events older than the given age",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "hours",
						Value: 48,
						Usage: "Delete events older than this many hours",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunPruneRateLimitEvents(ctx, int(cmd.Int("hours")))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
