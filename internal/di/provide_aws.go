package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/builder"
	"github.com/savaki/site-deployer/internal/notify"
	"github.com/savaki/site-deployer/internal/services"
	"github.com/savaki/site-deployer/internal/storage"
)

func ProvideAWSConfig(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx)
}

func ProvideS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg)
}

func ProvideCodeBuildClient(cfg aws.Config) *codebuild.Client {
	return codebuild.NewFromConfig(cfg)
}

func ProvideSNSClient(cfg aws.Config) *sns.Client {
	return sns.NewFromConfig(cfg)
}

func ProvideBuilder(client *codebuild.Client) *builder.Builder {
	return builder.New(client)
}

func ProvideFetcher(client *s3.Client) *storage.Fetcher {
	return storage.NewFetcher(client)
}

// ProvidePublisher writes to the deploy bucket. When a deploy role is configured the
// uploads use credentials from assuming that role, so the bucket may live in
// another account.
func ProvidePublisher(ctx context.Context, cfg aws.Config, client *s3.Client, unpack services.UnpackConfig) *storage.Publisher {
	if unpack.DeployRoleArn == "" {
		return storage.NewPublisher(client, unpack.DeployBucket)
	}

	zerolog.Ctx(ctx).Info().
		Str("role_arn", unpack.DeployRoleArn).
		Str("deploy_bucket", unpack.DeployBucket).
		Msg("Using assumed role for deploy bucket")

	creds := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), unpack.DeployRoleArn)
	deployCfg := cfg.Copy()
	deployCfg.Credentials = aws.NewCredentialsCache(creds)

	return storage.NewPublisher(s3.NewFromConfig(deployCfg), unpack.DeployBucket)
}

func ProvideNotifier(client *sns.Client, unpack services.UnpackConfig) *notify.Notifier {
	return notify.New(client, unpack.TopicArn)
}
