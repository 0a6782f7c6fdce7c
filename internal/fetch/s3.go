// Package fetch reads raw object bytes from S3 or the local filesystem.
package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/joseph-ayodele/file-ingestor/internal/common"
)

// S3API is the subset of the S3 client the fetcher needs.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Fetcher struct {
	client S3API
	logger *slog.Logger
}

func NewS3Fetcher(client S3API, logger *slog.Logger) *S3Fetcher {
	return &S3Fetcher{client: client, logger: logger}
}

// Fetch downloads bucket/key into memory. Every failure is a Transport error.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, common.TransportError(common.ErrNotFound, "s3://%s/%s", bucket, key)
		}
		return nil, common.TransportError(err, "get s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, common.TransportError(err, "read s3://%s/%s", bucket, key)
	}
	f.logger.Debug("s3 object fetched", "bucket", bucket, "key", key, "bytes", len(data))
	return data, nil
}
