package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/savaki/site-deployer/internal/errors"
	"gopkg.in/yaml.v3"
)

// Configuration keys. Environment variables use these names directly; Parameter
// Store uses the lower-cased, hyphenated form under /{env}/site-deployer/.
const (
	KeyBuildBranch       = "BUILD_BRANCH"
	KeyBucketName        = "BUCKET_NAME"
	KeyProjectName       = "PROJECT_NAME"
	KeyDeployBucket      = "DEPLOY_BUCKET"
	KeySiteRoot          = "SITE_ROOT"
	KeyTopicArn          = "SNS_TOPIC_ARN"
	KeySubject           = "SNS_SUBJECT"
	KeyMessage           = "SNS_MESSAGE"
	KeyUploadConcurrency = "UPLOAD_CONCURRENCY"
	KeyFailurePolicy     = "FAILURE_POLICY"
	KeySniffContentType  = "SNIFF_CONTENT_TYPE"
	KeyDeployRoleArn     = "DEPLOY_ROLE_ARN"
)

var keys = []string{
	KeyBuildBranch,
	KeyBucketName,
	KeyProjectName,
	KeyDeployBucket,
	KeySiteRoot,
	KeyTopicArn,
	KeySubject,
	KeyMessage,
	KeyUploadConcurrency,
	KeyFailurePolicy,
	KeySniffContentType,
	KeyDeployRoleArn,
}

// ParameterStore defines the interface for loading configuration
type ParameterStore interface {
	// GetConfig loads all application configuration
	GetConfig(ctx context.Context) (*Config, error)
}

// SSMGetParametersByPathAPI is the subset of the SSM client used to load configuration
type SSMGetParametersByPathAPI interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// SSMParameterStore implements ParameterStore using AWS Systems Manager Parameter Store
type SSMParameterStore struct {
	client SSMGetParametersByPathAPI
	env    string
}

// NewSSMParameterStore creates a new SSM-backed parameter store
func NewSSMParameterStore(client SSMGetParametersByPathAPI, env string) *SSMParameterStore {
	return &SSMParameterStore{
		client: client,
		env:    env,
	}
}

// Path returns the Parameter Store path holding configuration for the environment
func (s *SSMParameterStore) Path() string {
	return fmt.Sprintf("/%s/site-deployer", s.env)
}

// ParameterName returns the full Parameter Store name for a configuration key
func (s *SSMParameterStore) ParameterName(key string) string {
	return s.Path() + "/" + strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

// GetConfig loads all application configuration from Parameter Store
func (s *SSMParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	path := s.Path()

	params := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(s.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get parameters by path %s: %w", path, err)
		}
		for _, param := range page.Parameters {
			if param.Name != nil && param.Value != nil {
				params[*param.Name] = *param.Value
			}
		}
	}

	values := make(map[string]string, len(keys))
	for _, key := range keys {
		values[key] = params[s.ParameterName(key)]
	}
	return configFromValues(values)
}

// EnvParameterStore implements ParameterStore using environment variables
type EnvParameterStore struct {
	lookup func(string) string
}

// NewEnvParameterStore creates a new environment variable-backed parameter store
func NewEnvParameterStore() *EnvParameterStore {
	return &EnvParameterStore{lookup: os.Getenv}
}

// GetConfig loads all application configuration from environment variables
func (e *EnvParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		values[key] = e.lookup(key)
	}
	return configFromValues(values)
}

// FileParameterStore implements ParameterStore using a YAML file, for local use
type FileParameterStore struct {
	path string
}

// NewFileParameterStore creates a parameter store reading path
func NewFileParameterStore(path string) *FileParameterStore {
	return &FileParameterStore{path: path}
}

// GetConfig loads all application configuration from the YAML file
func (f *FileParameterStore) GetConfig(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", f.path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errors.ErrInvalidConfig, f.path, err)
	}
	config.Unpack = config.Unpack.WithDefaults()
	return &config, nil
}

func configFromValues(values map[string]string) (*Config, error) {
	config := &Config{
		Build: BuildConfig{
			Branch:  values[KeyBuildBranch],
			Bucket:  values[KeyBucketName],
			Project: values[KeyProjectName],
		},
		Unpack: UnpackConfig{
			DeployBucket:  values[KeyDeployBucket],
			SiteRoot:      values[KeySiteRoot],
			TopicArn:      values[KeyTopicArn],
			Subject:       values[KeySubject],
			Message:       values[KeyMessage],
			FailurePolicy: FailurePolicy(strings.ToLower(values[KeyFailurePolicy])),
			DeployRoleArn: values[KeyDeployRoleArn],
		},
	}

	if v := values[KeyUploadConcurrency]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %w", errors.ErrInvalidConfig, KeyUploadConcurrency, v, err)
		}
		config.Unpack.UploadConcurrency = n
	}

	if v := values[KeySniffContentType]; v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %w", errors.ErrInvalidConfig, KeySniffContentType, v, err)
		}
		config.Unpack.SniffContentType = b
	}

	config.Unpack = config.Unpack.WithDefaults()
	return config, nil
}
