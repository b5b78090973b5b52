package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/zerotouch/envseal/cmd/app/commands"
	"github.com/zerotouch/envseal/internal/app"
	"github.com/zerotouch/envseal/internal/config"
)

func getSystemCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "status",
			Usage: "Report an environment's key identity, escrow state and bundles",
			Flags: []cli.Flag{environmentFlag(), formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				escrowUC, err := container.EscrowUseCase(ctx)
				if err != nil {
					return err
				}
				return commands.RunStatus(
					ctx,
					escrowUC,
					container.BundleRepository(),
					container.BundleRepository(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("environment"),
					cmd.String("format"),
				)
			},
		},
	}
}
