package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/archive"
	"github.com/savaki/site-deployer/internal/constants"
	"github.com/savaki/site-deployer/internal/di"
	"github.com/savaki/site-deployer/internal/errors"
	"github.com/savaki/site-deployer/internal/notify"
	"github.com/savaki/site-deployer/internal/services"
	"github.com/savaki/site-deployer/internal/storage"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// ArchiveFetcher downloads the build archive named by the S3 event
type ArchiveFetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// ObjectPublisher writes site files to the deploy bucket
type ObjectPublisher interface {
	Put(ctx context.Context, input storage.PutInput) error
	Bucket() string
}

// DeployNotifier sends the deploy notification
type DeployNotifier interface {
	Publish(ctx context.Context, msg notify.Message) (string, error)
}

type Handler struct {
	fetcher   ArchiveFetcher
	publisher ObjectPublisher
	notifier  DeployNotifier
	config    services.UnpackConfig
	newID     func() string
}

func NewHandler(fetcher *storage.Fetcher, publisher *storage.Publisher, notifier *notify.Notifier, config services.UnpackConfig) *Handler {
	return &Handler{
		fetcher:   fetcher,
		publisher: publisher,
		notifier:  notifier,
		config:    config.WithDefaults(),
		newID:     func() string { return ksuid.New().String() },
	}
}

// uploadSummary counts the outcome of one archive
type uploadSummary struct {
	uploaded int
	skipped  int
	failures []error
}

// HandleS3Event deploys the archive named by the first record and sends the
// deploy notification once every upload has finished
func (h *Handler) HandleS3Event(ctx context.Context, event events.S3Event) error {
	deployID := h.newID()
	logger := zerolog.Ctx(ctx).With().Str("deploy_id", deployID).Logger()
	ctx = logger.WithContext(ctx)

	if len(event.Records) == 0 {
		logger.Error().Msg("S3 event has no records")
		return errors.ErrNoRecords
	}
	if n := len(event.Records); n > 1 {
		logger.Warn().
			Int("ignored_records", n-1).
			Msg("S3 event has more than one record, only the first is deployed")
	}

	record := &event.Records[0]
	bucket := record.S3.Bucket.Name
	key := objectKey(record)

	data, err := h.fetcher.Fetch(ctx, bucket, key)
	if err != nil {
		event := logger.Error().
			Err(err).
			Str("bucket", bucket).
			Str("key", key)
		if code := errorCode(err); code != "" {
			event = event.Str("error_code", code)
		}
		event.Msg("Get object error")
		return err
	}

	logger.Info().
		Str("bucket", bucket).
		Str("key", key).
		Int("size", len(data)).
		Msg("Processing archive")

	a, err := archive.Open(data)
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Failed to open archive")
		return err
	}

	summary := h.uploadAll(ctx, a.Entries(h.config.SiteRoot))

	logger.Info().
		Str("deploy_bucket", h.publisher.Bucket()).
		Int("uploaded", summary.uploaded).
		Int("skipped", summary.skipped).
		Int("failed", len(summary.failures)).
		Msg("Finished uploads")

	if len(summary.failures) > 0 && h.config.FailurePolicy == services.FailurePolicyStrict {
		logger.Error().
			Int("failed", len(summary.failures)).
			Msg("Uploads failed, not sending confirmation")
		return stderrors.Join(append([]error{errors.ErrUploadsFailed}, summary.failures...)...)
	}

	return h.sendConfirmation(ctx, deployID)
}

// uploadAll uploads every file entry with at most UploadConcurrency uploads in
// flight and returns once all of them have completed. A failed upload never
// stops the others.
func (h *Handler) uploadAll(ctx context.Context, entries []archive.Entry) uploadSummary {
	logger := zerolog.Ctx(ctx)

	var (
		mu      sync.Mutex
		summary uploadSummary
		g       errgroup.Group
	)
	g.SetLimit(h.config.UploadConcurrency)

	for _, entry := range entries {
		if entry.Dir {
			logger.Info().Str("entry", entry.Name).Msg("Skipping directory")
			summary.skipped++
			continue
		}

		g.Go(func() error {
			err := h.upload(ctx, entry)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logUploadError(logger, entry, err)
				summary.failures = append(summary.failures, err)
				return nil
			}
			summary.uploaded++
			return nil
		})
	}
	_ = g.Wait()

	return summary
}

func (h *Handler) upload(ctx context.Context, entry archive.Entry) error {
	data, err := entry.Read()
	if err != nil {
		return err
	}

	contentType := archive.ContentType(entry.Key, data, h.config.SniffContentType)

	zerolog.Ctx(ctx).Info().
		Str("key", entry.Key).
		Str("content_type", contentType).
		Int("size", len(data)).
		Msg("Uploading")

	return h.publisher.Put(ctx, storage.PutInput{
		Key:         entry.Key,
		ContentType: contentType,
		Body:        data,
	})
}

func (h *Handler) sendConfirmation(ctx context.Context, deployID string) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("Sending confirmation")

	messageID, err := h.notifier.Publish(ctx, notify.Message{
		Subject: h.config.Subject,
		Body:    h.config.Message,
		Attributes: map[string]string{
			constants.DeployIDAttribute: deployID,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to send confirmation")
		return err
	}

	logger.Info().Str("message_id", messageID).Msg("Sent confirmation")
	return nil
}

func logUploadError(logger *zerolog.Logger, entry archive.Entry, err error) {
	event := logger.Error().
		Err(err).
		Str("entry", entry.Name).
		Str("key", entry.Key)

	if code := errorCode(err); code != "" {
		event = event.Str("error_code", code)
	}
	event.Msg("Upload failed")
}

// errorCode returns the AWS API error code wrapped by err, if any
func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// objectKey prefers the URL-decoded key populated when the event is unmarshaled
func objectKey(record *events.S3EventRecord) string {
	if record.S3.Object.URLDecodedKey != "" {
		return record.S3.Object.URLDecodedKey
	}
	return record.S3.Object.Key
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
	logger := di.ProvideLogger().With().Str("lambda", "unpack-site").Logger()
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
		wrappedHandler := func(ctx context.Context, event events.S3Event) error {
			ctx = logger.WithContext(ctx)
			return handler.HandleS3Event(ctx, event)
		}
		lambda.Start(wrappedHandler)
		return
	}

	app := &cli.App{
		Name:  "unpack-site",
		Usage: "Simulate an S3 event to deploy a build archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "bucket",
				Usage:    "S3 bucket holding the build archive",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "key",
				Usage:    "S3 object key of the build archive (e.g., build/artifacts-abc123)",
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

			event := events.S3Event{
				Records: []events.S3EventRecord{
					{
						S3: events.S3Entity{
							Bucket: events.S3Bucket{
								Name: c.String("bucket"),
							},
							Object: events.S3Object{
								Key: c.String("key"),
							},
						},
					},
				},
			}
			return handler.HandleS3Event(ctx, event)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
