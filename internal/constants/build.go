package constants

// CodeBuild artifact override values for the push-triggered build
const (
	// BranchRefPrefix is prepended to the configured branch to form the git ref
	// that push events are matched against
	BranchRefPrefix = "refs/heads/"

	// ArtifactPath is the folder inside the artifact bucket that CodeBuild writes to
	ArtifactPath = "build"

	// ArtifactNamePrefix is joined with the commit id to name the build artifact
	ArtifactNamePrefix = "artifacts-"
)
