package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/errors"
	"github.com/savaki/site-deployer/internal/services"
)

// ProvideParameterStore provides a ParameterStore implementation.
// A config file wins; otherwise the source selects SSM Parameter Store or environment variables.
func ProvideParameterStore(ctx context.Context, env string, source ConfigSource, file ConfigFile, ssmClient *ssm.Client) (services.ParameterStore, error) {
	logger := zerolog.Ctx(ctx)

	if file != "" {
		logger.Info().Str("path", string(file)).Msg("Using configuration file")
		return services.NewFileParameterStore(string(file)), nil
	}

	switch source {
	case "", "env":
		logger.Info().Msg("Using environment variables for configuration")
		return services.NewEnvParameterStore(), nil
	case "ssm":
		logger.Info().Str("env", env).Msg("Using AWS Systems Manager Parameter Store for configuration")
		return services.NewSSMParameterStore(ssmClient, env), nil
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownConfigSrc, source)
	}
}

// ProvideSSMClient provides an SSM client for Parameter Store access.
// Returns nil unless the ssm configuration source is selected.
func ProvideSSMClient(cfg aws.Config, source ConfigSource) *ssm.Client {
	if source != "ssm" {
		return nil
	}
	return ssm.NewFromConfig(cfg)
}

// ProvideAppConfig loads application configuration from the selected parameter store
func ProvideAppConfig(ctx context.Context, store services.ParameterStore) (*services.Config, error) {
	logger := zerolog.Ctx(ctx)

	config, err := store.GetConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Info().
		Str("build_branch", config.Build.Branch).
		Str("project", config.Build.Project).
		Str("deploy_bucket", config.Unpack.DeployBucket).
		Str("site_root", config.Unpack.SiteRoot).
		Str("failure_policy", string(config.Unpack.FailurePolicy)).
		Int("upload_concurrency", config.Unpack.UploadConcurrency).
		Bool("has_deploy_role", config.Unpack.DeployRoleArn != "").
		Msg("Configuration loaded successfully")

	return config, nil
}

// ProvideBuildConfig returns the validated build trigger configuration
func ProvideBuildConfig(config *services.Config) (services.BuildConfig, error) {
	if err := config.Build.Validate(); err != nil {
		return services.BuildConfig{}, err
	}
	return config.Build, nil
}

// ProvideUnpackConfig returns the validated unpack configuration
func ProvideUnpackConfig(config *services.Config) (services.UnpackConfig, error) {
	if err := config.Unpack.Validate(); err != nil {
		return services.UnpackConfig{}, err
	}
	return config.Unpack, nil
}
