package commands

import (
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/di"
	"github.com/savaki/site-deployer/internal/services"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// ConfigCommand returns the config command for inspecting lambda configuration
func ConfigCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"c", "cfg"},
		Usage:   "Print the resolved configuration as YAML",
		Description: `Load configuration the same way the lambdas do and print it as YAML.

Both halves are validated; the command fails when either is incomplete.

Examples:
  # Configuration from environment variables
  site-deployer config

  # Configuration from Parameter Store under /prd/site-deployer
  site-deployer config --env prd --config-source ssm

  # Configuration from a local file, validating only the unpack lambda settings
  site-deployer config --config site.yaml --only unpack`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "Environment (dev, stg, or prd) - selects the Parameter Store path",
				Value:   "dev",
				EnvVars: []string{"ENV"},
			},
			&cli.StringFlag{
				Name:    "config-source",
				Aliases: []string{"s"},
				Usage:   "Configuration source (env or ssm)",
				EnvVars: []string{"CONFIG_SOURCE"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"f"},
				Usage:   "YAML configuration file (takes precedence over --config-source)",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:    "only",
				Aliases: []string{"o"},
				Usage:   "Validate only one lambda's settings (build or unpack)",
			},
		},
		Action: func(c *cli.Context) error {
			return configAction(c, logger)
		},
	}
}

func configAction(c *cli.Context, logger *zerolog.Logger) error {
	container, err := di.New(c.String("env"),
		di.WithContext(logger.WithContext(c.Context)),
		di.WithConfigSource(c.String("config-source")),
		di.WithConfigFile(c.String("config")),
	)
	if err != nil {
		return fmt.Errorf("failed to create DI container: %w", err)
	}

	config, err := di.Get[*services.Config](container)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	fmt.Fprint(c.App.Writer, string(out))

	if err := validateConfig(config, c.String("only")); err != nil {
		logger.Error().Err(err).Msg("Configuration is invalid")
		return err
	}
	return nil
}

func validateConfig(config *services.Config, only string) error {
	switch only {
	case "":
		return stderrors.Join(config.Build.Validate(), config.Unpack.Validate())
	case "build":
		return config.Build.Validate()
	case "unpack":
		return config.Unpack.Validate()
	default:
		return fmt.Errorf("--only must be build or unpack, got %q", only)
	}
}
