package services

import (
	stderrors "errors"
	"fmt"
	"maps"
	"slices"

	"github.com/savaki/site-deployer/internal/constants"
	"github.com/savaki/site-deployer/internal/errors"
)

// FailurePolicy decides what happens to the deploy notification when uploads fail
type FailurePolicy string

const (
	// FailurePolicyBestEffort logs failed uploads and always sends the notification
	FailurePolicyBestEffort FailurePolicy = "best-effort"

	// FailurePolicyStrict suppresses the notification and fails the invocation
	// when any upload fails
	FailurePolicyStrict FailurePolicy = "strict"
)

// Config holds configuration for both lambdas. Each lambda validates only its own half.
type Config struct {
	Build  BuildConfig  `yaml:"build"`
	Unpack UnpackConfig `yaml:"unpack"`
}

// BuildConfig configures the push-triggered build
type BuildConfig struct {
	Branch  string `yaml:"branch"`  // BUILD_BRANCH: branch name matched against refs/heads/{branch}
	Bucket  string `yaml:"bucket"`  // BUCKET_NAME: bucket receiving the build artifact
	Project string `yaml:"project"` // PROJECT_NAME: CodeBuild project to start
}

// Ref returns the git ref pushes must match
func (c BuildConfig) Ref() string {
	return constants.BranchRefPrefix + c.Branch
}

// Validate reports every missing field
func (c BuildConfig) Validate() error {
	return required(map[string]string{
		"BUILD_BRANCH": c.Branch,
		"BUCKET_NAME":  c.Bucket,
		"PROJECT_NAME": c.Project,
	})
}

// UnpackConfig configures the archive unpack and publish lambda
type UnpackConfig struct {
	DeployBucket      string        `yaml:"deploy_bucket"`      // DEPLOY_BUCKET: destination for extracted files
	SiteRoot          string        `yaml:"site_root"`          // SITE_ROOT: folder stripped from each entry path
	TopicArn          string        `yaml:"topic_arn"`          // SNS_TOPIC_ARN: deploy notification topic
	Subject           string        `yaml:"subject"`            // SNS_SUBJECT: notification subject
	Message           string        `yaml:"message"`            // SNS_MESSAGE: notification body
	UploadConcurrency int           `yaml:"upload_concurrency"` // UPLOAD_CONCURRENCY: max in-flight uploads
	FailurePolicy     FailurePolicy `yaml:"failure_policy"`     // FAILURE_POLICY: best-effort or strict
	SniffContentType  bool          `yaml:"sniff_content_type"` // SNIFF_CONTENT_TYPE: inspect files with unknown extensions
	DeployRoleArn     string        `yaml:"deploy_role_arn"`    // DEPLOY_ROLE_ARN: role assumed for cross-account deploy buckets
}

// WithDefaults fills unset optional fields
func (c UnpackConfig) WithDefaults() UnpackConfig {
	if c.UploadConcurrency == 0 {
		c.UploadConcurrency = constants.DefaultUploadConcurrency
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = FailurePolicyBestEffort
	}
	return c
}

// Validate reports every missing or invalid field
func (c UnpackConfig) Validate() error {
	errs := []error{
		required(map[string]string{
			"DEPLOY_BUCKET": c.DeployBucket,
			"SNS_TOPIC_ARN": c.TopicArn,
			"SNS_MESSAGE":   c.Message,
		}),
	}
	if c.UploadConcurrency < 1 {
		errs = append(errs, fmt.Errorf("%w: UPLOAD_CONCURRENCY must be at least 1, got %d", errors.ErrInvalidConfig, c.UploadConcurrency))
	}
	switch c.FailurePolicy {
	case FailurePolicyBestEffort, FailurePolicyStrict:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", errors.ErrUnknownPolicy, c.FailurePolicy))
	}
	return stderrors.Join(errs...)
}

func required(fields map[string]string) error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if fields[name] == "" {
			errs = append(errs, fmt.Errorf("%w: %s", errors.ErrMissingConfig, name))
		}
	}
	return stderrors.Join(errs...)
}
