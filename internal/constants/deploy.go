package constants

// Defaults for the archive unpack and publish lambda
const (
	// DefaultContentType is used when no content type can be inferred for a file
	DefaultContentType = "application/octet-stream"

	// DefaultUploadConcurrency bounds the number of in-flight S3 uploads
	DefaultUploadConcurrency = 8

	// DeployIDAttribute is the SNS message attribute carrying the deploy id
	DeployIDAttribute = "deploy_id"
)
