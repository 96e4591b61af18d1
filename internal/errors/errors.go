package errors

import "errors"

var (
	ErrMissingConfig    = errors.New("missing required configuration")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrMissingCommit    = errors.New("push event has no head commit")
	ErrNoRecords        = errors.New("S3 event contains no records")
	ErrInvalidArchive   = errors.New("invalid build archive")
	ErrUploadsFailed    = errors.New("one or more site uploads failed")
	ErrUnknownPolicy    = errors.New("unknown failure policy")
	ErrUnknownConfigSrc = errors.New("unknown configuration source")
)
