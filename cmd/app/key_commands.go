package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/zerotouch/envseal/cmd/app/commands"
	"github.com/zerotouch/envseal/internal/app"
	"github.com/zerotouch/envseal/internal/config"
)

// environmentFlag returns the required environment selector flag.
func environmentFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "environment",
		Aliases:  []string{"e"},
		Required: true,
		Usage:    "Environment name (e.g., staging, production)",
	}
}

// formatFlag returns the text/json output format flag.
func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "issue",
			Usage: "Issue a primary and recovery key pair for an environment",
			Flags: []cli.Flag{environmentFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				issuerUC, err := container.IssuerUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunIssue(
					ctx,
					issuerUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("environment"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "backup",
			Usage: "Escrow the environment's staged keys to the durable store",
			Flags: []cli.Flag{environmentFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				escrowUC, err := container.EscrowUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunBackup(
					ctx,
					escrowUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("environment"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate",
			Usage: "Replace the environment's key pair and re-encrypt every bundle",
			Flags: []cli.Flag{environmentFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				rotateUC, err := container.RotateUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunRotate(
					ctx,
					rotateUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("environment"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "history",
			Usage: "List the environment's archived escrow records",
			Flags: []cli.Flag{environmentFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				escrowUC, err := container.EscrowUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunHistory(
					ctx,
					escrowUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("environment"),
					cmd.String("format"),
				)
			},
		},
	}
}
