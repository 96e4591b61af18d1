package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// GetObjectAPI abstracts S3 GetObject operations for testing
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// PutObjectAPI abstracts S3 PutObject operations for testing
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Fetcher downloads build archives
type Fetcher struct {
	client GetObjectAPI
}

// NewFetcher creates a Fetcher
func NewFetcher(client GetObjectAPI) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch reads the whole object into memory. A GetObject error is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	result, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// PutInput is a single object written to the deploy bucket
type PutInput struct {
	Key         string
	ContentType string
	Body        []byte
}

// Publisher writes publicly readable objects to the deploy bucket
type Publisher struct {
	client PutObjectAPI
	bucket string
}

// NewPublisher creates a Publisher for bucket
func NewPublisher(client PutObjectAPI, bucket string) *Publisher {
	return &Publisher{
		client: client,
		bucket: bucket,
	}
}

// Bucket returns the deploy bucket name
func (p *Publisher) Bucket() string {
	return p.bucket
}

// Put uploads input with a public-read ACL
func (p *Publisher) Put(ctx context.Context, input PutInput) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(input.Key),
		Body:          bytes.NewReader(input.Body),
		ContentLength: aws.Int64(int64(len(input.Body))),
		ContentType:   aws.String(input.ContentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", p.bucket, input.Key, err)
	}
	return nil
}
