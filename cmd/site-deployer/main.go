package main

import (
	"context"
	"os"

	"github.com/savaki/site-deployer/cmd/site-deployer/commands"
	"github.com/savaki/site-deployer/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "site-deployer",
		Usage: "Operator tooling for the static site deploy lambdas",
		Description: `Inspect the configuration and archives used by the trigger-build and
unpack-site lambdas without deploying anything.

This tool provides commands for:
  - Printing the resolved configuration the lambdas would load
  - Listing the uploads a build archive would produce`,
		Commands: []*cli.Command{
			commands.ConfigCommand(&logger),
			commands.PlanCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
