package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/zerotouch/envseal/cmd/app/commands"
	"github.com/zerotouch/envseal/internal/app"
	"github.com/zerotouch/envseal/internal/config"
)

func getBundleCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt",
			Usage: "Seal dotenv-formatted plaintext values into a bundle",
			Flags: []cli.Flag{
				environmentFlag(),
				formatFlag(),
				&cli.StringFlag{
					Name:     "group",
					Aliases:  []string{"g"},
					Required: true,
					Usage:    "Bundle group name (one file per group)",
				},
				&cli.StringFlag{
					Name:    "input",
					Aliases: []string{"i"},
					Value:   "-",
					Usage:   "Dotenv input file, or '-' for stdin",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				encryptUC, err := container.EncryptUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunEncrypt(
					ctx,
					encryptUC,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("environment"),
					cmd.String("group"),
					cmd.String("input"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "materialize",
			Usage: "Decrypt the environment's bundles into a namespaced secret set",
			Flags: []cli.Flag{
				environmentFlag(),
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "env",
					Usage:   "Output format: 'env' or 'json'",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   "",
					Usage:   "Write to this file (created 0600) instead of stdout",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				materializeUC, err := container.MaterializeUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunMaterialize(
					ctx,
					materializeUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("environment"),
					cmd.String("format"),
					cmd.String("output"),
				)
			},
		},
	}
}
