package services

import (
	"testing"

	"github.com/savaki/site-deployer/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestBuildConfig_Ref(t *testing.T) {
	assert.Equal(t, "refs/heads/main", BuildConfig{Branch: "main"}.Ref())
	assert.Equal(t, "refs/heads/release/v2", BuildConfig{Branch: "release/v2"}.Ref())
}

func TestBuildConfig_Validate(t *testing.T) {
	valid := BuildConfig{Branch: "main", Bucket: "artifacts", Project: "site"}
	assert.NoError(t, valid.Validate())

	err := BuildConfig{Branch: "main"}.Validate()
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
	assert.Contains(t, err.Error(), "BUCKET_NAME")
	assert.Contains(t, err.Error(), "PROJECT_NAME")
	assert.NotContains(t, err.Error(), "BUILD_BRANCH")
}

func TestUnpackConfig_WithDefaults(t *testing.T) {
	got := UnpackConfig{}.WithDefaults()
	assert.Equal(t, 8, got.UploadConcurrency)
	assert.Equal(t, FailurePolicyBestEffort, got.FailurePolicy)

	kept := UnpackConfig{UploadConcurrency: 2, FailurePolicy: FailurePolicyStrict}.WithDefaults()
	assert.Equal(t, 2, kept.UploadConcurrency)
	assert.Equal(t, FailurePolicyStrict, kept.FailurePolicy)
}

func TestUnpackConfig_Validate(t *testing.T) {
	base := UnpackConfig{
		DeployBucket: "www.example.com",
		TopicArn:     "arn:aws:sns:us-east-1:123456789012:deploys",
		Message:      "Site deployed",
	}.WithDefaults()

	tests := []struct {
		name    string
		mutate  func(c *UnpackConfig)
		wantErr error
		wantMsg string
	}{
		{
			name:   "valid",
			mutate: func(c *UnpackConfig) {},
		},
		{
			name:   "site root and subject are optional",
			mutate: func(c *UnpackConfig) { c.SiteRoot = ""; c.Subject = "" },
		},
		{
			name:    "missing deploy bucket",
			mutate:  func(c *UnpackConfig) { c.DeployBucket = "" },
			wantErr: errors.ErrMissingConfig,
			wantMsg: "DEPLOY_BUCKET",
		},
		{
			name:    "missing topic",
			mutate:  func(c *UnpackConfig) { c.TopicArn = "" },
			wantErr: errors.ErrMissingConfig,
			wantMsg: "SNS_TOPIC_ARN",
		},
		{
			name:    "missing message",
			mutate:  func(c *UnpackConfig) { c.Message = "" },
			wantErr: errors.ErrMissingConfig,
			wantMsg: "SNS_MESSAGE",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *UnpackConfig) { c.UploadConcurrency = -1 },
			wantErr: errors.ErrInvalidConfig,
			wantMsg: "UPLOAD_CONCURRENCY",
		},
		{
			name:    "unknown policy",
			mutate:  func(c *UnpackConfig) { c.FailurePolicy = "yolo" },
			wantErr: errors.ErrUnknownPolicy,
			wantMsg: "yolo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
