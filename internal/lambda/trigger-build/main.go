package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/builder"
	"github.com/savaki/site-deployer/internal/di"
	"github.com/savaki/site-deployer/internal/errors"
	"github.com/savaki/site-deployer/internal/models"
	"github.com/savaki/site-deployer/internal/services"
	"github.com/urfave/cli/v2"
)

// BuildStarter starts a build for a commit and returns the build id
type BuildStarter interface {
	StartBuild(ctx context.Context, input builder.ArtifactInput) (string, error)
}

type Handler struct {
	builder BuildStarter
	config  services.BuildConfig
}

func NewHandler(b *builder.Builder, config services.BuildConfig) *Handler {
	return &Handler{
		builder: b,
		config:  config,
	}
}

// HandlePush starts a build when the push is for the configured branch
func (h *Handler) HandlePush(ctx context.Context, event models.PushEvent) (models.BuildResult, error) {
	logger := zerolog.Ctx(ctx)

	if logger.Debug().Enabled() {
		if raw, err := json.Marshal(event); err == nil {
			logger.Debug().RawJSON("event", raw).Msg("Received push event")
		}
	}

	ref := h.config.Ref()
	if event.Ref != ref {
		logger.Info().
			Str("ref", event.Ref).
			Str("build_ref", ref).
			Msg("Skipping build for ref")
		return models.BuildResult{Skipped: event.Ref}, nil
	}

	commit := event.CommitID()
	if commit == "" {
		logger.Warn().
			Str("ref", event.Ref).
			Bool("deleted", event.Deleted).
			Msg("Push has no commit to build")
		return models.BuildResult{}, fmt.Errorf("%w: %s", errors.ErrMissingCommit, event.Ref)
	}

	logger.Info().
		Str("branch", h.config.Branch).
		Str("commit", commit).
		Str("project", h.config.Project).
		Msg("Starting build")

	result := models.BuildResult{
		Branch: h.config.Branch,
		Commit: commit,
	}

	buildID, err := h.builder.StartBuild(ctx, builder.ArtifactInput{
		Project:  h.config.Project,
		Bucket:   h.config.Bucket,
		CommitID: commit,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Str("project", h.config.Project).
			Str("commit", commit).
			Msg("Failed to start build")
		return result, err
	}

	logger.Info().
		Str("build_id", buildID).
		Str("artifact", builder.ArtifactName(commit)).
		Str("bucket", h.config.Bucket).
		Msg("Started build")

	return result, nil
}

func newContainer(ctx context.Context, env, configFile string) (di.Container, error) {
	return di.New(env,
		di.WithContext(ctx),
		di.WithConfigSource(os.Getenv("CONFIG_SOURCE")),
		di.WithConfigFile(configFile),
		di.WithProviders(NewHandler),
	)
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "trigger-build").Logger()
	ctx := logger.WithContext(context.Background())

	env := os.Getenv("ENV")
	if env == "" {
		env = "dev"
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		container, err := newContainer(ctx, env, "")
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create DI container")
			os.Exit(1)
		}

		handler, err := di.Get[*Handler](container)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create handler")
			os.Exit(1)
		}

		// Wrap handler to inject logger into context
		wrappedHandler := func(ctx context.Context, event models.PushEvent) (models.BuildResult, error) {
			ctx = logger.WithContext(ctx)
			return handler.HandlePush(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	// CLI mode
	app := &cli.App{
		Name:  "trigger-build",
		Usage: "Simulate a push event to trigger a CodeBuild build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ref",
				Usage:    "Git ref that was pushed (e.g., refs/heads/main)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "commit",
				Usage:    "Head commit id",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML configuration file (defaults to environment variables)",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			container, err := newContainer(ctx, env, c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to create DI container: %w", err)
			}

			handler, err := di.Get[*Handler](container)
			if err != nil {
				return fmt.Errorf("failed to create handler: %w", err)
			}

			result, err := handler.HandlePush(ctx, models.PushEvent{
				Ref:        c.String("ref"),
				HeadCommit: &models.Commit{ID: c.String("commit")},
			})
			if err != nil {
				return err
			}

			out, err := json.Marshal(result)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
