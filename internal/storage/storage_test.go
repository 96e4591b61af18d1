package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	getObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	putObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return m.getObjectFunc(ctx, params, optFns...)
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return m.putObjectFunc(ctx, params, optFns...)
}

func TestFetcher_Fetch(t *testing.T) {
	client := &mockS3Client{
		getObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			assert.Equal(t, "artifact-bucket", aws.ToString(params.Bucket))
			assert.Equal(t, "build/artifacts-abc123", aws.ToString(params.Key))
			return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte("zip-bytes")))}, nil
		},
	}

	data, err := NewFetcher(client).Fetch(context.Background(), "artifact-bucket", "build/artifacts-abc123")
	require.NoError(t, err)
	assert.Equal(t, []byte("zip-bytes"), data)
}

func TestFetcher_FetchError(t *testing.T) {
	fetchErr := errors.New("access denied")
	client := &mockS3Client{
		getObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, fetchErr
		},
	}

	_, err := NewFetcher(client).Fetch(context.Background(), "bucket", "key")
	assert.Same(t, fetchErr, err)
}

func TestFetcher_FetchNoSuchKey(t *testing.T) {
	client := &mockS3Client{
		getObjectFunc: func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			return nil, &s3types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
		},
	}

	_, err := NewFetcher(client).Fetch(context.Background(), "bucket", "missing.zip")
	require.Error(t, err)

	var noSuchKey *s3types.NoSuchKey
	assert.ErrorAs(t, err, &noSuchKey)
}

func TestPublisher_Put(t *testing.T) {
	var (
		mu   sync.Mutex
		puts []*s3.PutObjectInput
		body []byte
	)
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			mu.Lock()
			defer mu.Unlock()
			puts = append(puts, params)
			body, _ = io.ReadAll(params.Body)
			return &s3.PutObjectOutput{}, nil
		},
	}

	publisher := NewPublisher(client, "www.example.com")
	assert.Equal(t, "www.example.com", publisher.Bucket())

	err := publisher.Put(context.Background(), PutInput{
		Key:         "index.html",
		ContentType: "text/html",
		Body:        []byte("<html></html>"),
	})
	require.NoError(t, err)

	require.Len(t, puts, 1)
	put := puts[0]
	assert.Equal(t, "www.example.com", aws.ToString(put.Bucket))
	assert.Equal(t, "index.html", aws.ToString(put.Key))
	assert.Equal(t, "text/html", aws.ToString(put.ContentType))
	assert.Equal(t, s3types.ObjectCannedACLPublicRead, put.ACL)
	assert.Equal(t, int64(13), aws.ToInt64(put.ContentLength))
	assert.Equal(t, "<html></html>", string(body))
}

func TestPublisher_PutError(t *testing.T) {
	putErr := errors.New("slow down")
	client := &mockS3Client{
		putObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, putErr
		},
	}

	err := NewPublisher(client, "bucket").Put(context.Background(), PutInput{Key: "a.css", ContentType: "text/css"})
	require.Error(t, err)
	assert.ErrorIs(t, err, putErr)
	assert.Contains(t, err.Error(), "s3://bucket/a.css")
}
