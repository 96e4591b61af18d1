package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/savaki/site-deployer/internal/builder"
	apperrors "github.com/savaki/site-deployer/internal/errors"
	"github.com/savaki/site-deployer/internal/models"
	"github.com/savaki/site-deployer/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBuilder struct {
	calls          []builder.ArtifactInput
	startBuildFunc func(ctx context.Context, input builder.ArtifactInput) (string, error)
}

func (m *mockBuilder) StartBuild(ctx context.Context, input builder.ArtifactInput) (string, error) {
	m.calls = append(m.calls, input)
	if m.startBuildFunc != nil {
		return m.startBuildFunc(ctx, input)
	}
	return "site:" + input.CommitID, nil
}

var testConfig = services.BuildConfig{
	Branch:  "main",
	Bucket:  "site-artifacts",
	Project: "site",
}

// Helper to create a test context with logger
func testContext() context.Context {
	logger := zerolog.New(io.Discard)
	return logger.WithContext(context.Background())
}

// loadTestEvent loads a push event from a JSON file in testdata
func loadTestEvent(t *testing.T, filename string) models.PushEvent {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", filename))
	require.NoError(t, err)

	var event models.PushEvent
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHandlePush_MatchingBranch(t *testing.T) {
	b := &mockBuilder{}
	handler := &Handler{builder: b, config: testConfig}

	result, err := handler.HandlePush(testContext(), models.PushEvent{
		Ref:        "refs/heads/main",
		HeadCommit: &models.Commit{ID: "abc123"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.BuildResult{Branch: "main", Commit: "abc123"}, result)
	require.Len(t, b.calls, 1)
	assert.Equal(t, builder.ArtifactInput{
		Project:  "site",
		Bucket:   "site-artifacts",
		CommitID: "abc123",
	}, b.calls[0])
	assert.Equal(t, "artifacts-abc123", builder.ArtifactName(b.calls[0].CommitID))
}

func TestHandlePush_OtherBranch(t *testing.T) {
	b := &mockBuilder{}
	handler := &Handler{builder: b, config: testConfig}

	result, err := handler.HandlePush(testContext(), models.PushEvent{
		Ref:        "refs/heads/dev",
		HeadCommit: &models.Commit{ID: "abc123"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.BuildResult{Skipped: "refs/heads/dev"}, result)
	assert.Empty(t, b.calls)
}

func TestHandlePush_SkipsNonBranchRefs(t *testing.T) {
	refs := []string{
		"",
		"main",
		"refs/tags/main",
		"refs/heads/main-old",
		"refs/heads/feature/main",
	}

	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			b := &mockBuilder{}
			handler := &Handler{builder: b, config: testConfig}

			result, err := handler.HandlePush(testContext(), models.PushEvent{
				Ref:        ref,
				HeadCommit: &models.Commit{ID: "abc123"},
			})
			require.NoError(t, err)
			assert.Equal(t, ref, result.Skipped)
			assert.Empty(t, result.Branch)
			assert.Empty(t, b.calls)
		})
	}
}

func TestHandlePush_StartBuildError(t *testing.T) {
	buildErr := errors.New("ResourceNotFoundException: project not found")
	b := &mockBuilder{
		startBuildFunc: func(ctx context.Context, input builder.ArtifactInput) (string, error) {
			return "", buildErr
		},
	}
	handler := &Handler{builder: b, config: testConfig}

	result, err := handler.HandlePush(testContext(), models.PushEvent{
		Ref:        "refs/heads/main",
		HeadCommit: &models.Commit{ID: "abc123"},
	})

	assert.Same(t, buildErr, err)
	assert.Equal(t, models.BuildResult{Branch: "main", Commit: "abc123"}, result)
	assert.Len(t, b.calls, 1)
}

type mockCodeBuild struct {
	startBuildFunc func(ctx context.Context, params *codebuild.StartBuildInput) (*codebuild.StartBuildOutput, error)
}

func (m *mockCodeBuild) StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error) {
	return m.startBuildFunc(ctx, params)
}

func TestHandlePush_CodeBuildErrorReturnedUnchanged(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "Project cannot be found"}
	client := &mockCodeBuild{
		startBuildFunc: func(ctx context.Context, params *codebuild.StartBuildInput) (*codebuild.StartBuildOutput, error) {
			return nil, apiErr
		},
	}
	handler := NewHandler(builder.New(client), testConfig)

	result, err := handler.HandlePush(testContext(), models.PushEvent{
		Ref:        "refs/heads/main",
		HeadCommit: &models.Commit{ID: "abc123"},
	})

	assert.Same(t, apiErr, err)
	assert.Equal(t, models.BuildResult{Branch: "main", Commit: "abc123"}, result)
}

func TestHandlePush_MissingCommit(t *testing.T) {
	b := &mockBuilder{}
	handler := &Handler{builder: b, config: testConfig}

	_, err := handler.HandlePush(testContext(), models.PushEvent{Ref: "refs/heads/main"})
	assert.ErrorIs(t, err, apperrors.ErrMissingCommit)
	assert.Empty(t, b.calls)
}

func TestHandlePush_FromJSON(t *testing.T) {
	tests := []struct {
		file      string
		want      models.BuildResult
		wantErr   error
		wantCalls int
	}{
		{
			file:      "push_main.json",
			want:      models.BuildResult{Branch: "main", Commit: "0d1a26e67d8f5eaf1f6ba5c57fc3c7d91ac0fd1c"},
			wantCalls: 1,
		},
		{
			file: "push_feature.json",
			want: models.BuildResult{Skipped: "refs/heads/feature/new-nav"},
		},
		{
			file:    "push_deleted.json",
			wantErr: apperrors.ErrMissingCommit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			b := &mockBuilder{}
			handler := &Handler{builder: b, config: testConfig}

			result, err := handler.HandlePush(testContext(), loadTestEvent(t, tt.file))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, result)
			}
			assert.Len(t, b.calls, tt.wantCalls)
		})
	}
}

func TestNewHandler(t *testing.T) {
	handler := NewHandler(builder.New(nil), testConfig)
	assert.NotNil(t, handler.builder)
	assert.Equal(t, testConfig, handler.config)
}
