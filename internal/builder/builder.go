package builder

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/codebuild"
	"github.com/aws/aws-sdk-go-v2/service/codebuild/types"
	"github.com/savaki/site-deployer/internal/constants"
)

// StartBuildAPI is the subset of the CodeBuild client used to start builds
type StartBuildAPI interface {
	StartBuild(ctx context.Context, params *codebuild.StartBuildInput, optFns ...func(*codebuild.Options)) (*codebuild.StartBuildOutput, error)
}

// ArtifactInput describes a single build request
type ArtifactInput struct {
	Project  string // CodeBuild project name
	Bucket   string // S3 bucket receiving the build artifact
	CommitID string // Commit being built, used to name the artifact
}

// Builder starts CodeBuild builds with an S3 artifact override
type Builder struct {
	client StartBuildAPI
}

// New creates a new Builder instance
func New(client StartBuildAPI) *Builder {
	return &Builder{client: client}
}

// ArtifactName returns the artifact name for a commit
func ArtifactName(commitID string) string {
	return constants.ArtifactNamePrefix + commitID
}

// Artifacts returns the artifact override written to {bucket}/build/artifacts-{commit}
// with no packaging, so the unpack lambda receives the raw build output.
func Artifacts(bucket, commitID string) *types.ProjectArtifacts {
	return &types.ProjectArtifacts{
		Type:      types.ArtifactsTypeS3,
		Path:      aws.String(constants.ArtifactPath),
		Location:  aws.String(bucket),
		Name:      aws.String(ArtifactName(commitID)),
		Packaging: types.ArtifactPackagingNone,
	}
}

// StartBuild submits one build for the project and returns the CodeBuild build id.
// A CodeBuild error is returned as is.
func (b *Builder) StartBuild(ctx context.Context, input ArtifactInput) (string, error) {
	result, err := b.client.StartBuild(ctx, &codebuild.StartBuildInput{
		ProjectName:       aws.String(input.Project),
		ArtifactsOverride: Artifacts(input.Bucket, input.CommitID),
	})
	if err != nil {
		return "", err
	}

	if result == nil || result.Build == nil {
		return "", nil
	}
	return aws.ToString(result.Build.Id), nil
}
