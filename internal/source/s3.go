package source

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kingfisher-scan/kingfisher/internal/types"
)

// S3Adapter enumerates objects under a bucket/prefix. It exists to
// exercise the ExtendedOrigin path end to end: an S3 object has no
// natural filesystem path, so its origin is carried as a small JSON
// envelope rather than a file/git path.
type S3Adapter struct {
	client *s3.Client
	bucket string
	prefix string
	limits Limits
}

// NewS3Adapter builds an adapter over a bucket/prefix using the
// default AWS credential chain (environment, shared config, IMDS).
func NewS3Adapter(ctx context.Context, bucket, prefix string, limits Limits) (*S3Adapter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return &S3Adapter{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		limits: limits,
	}, nil
}

func (a *S3Adapter) Enumerate(ctx context.Context, callback Callback) error {
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.prefix),
	})

	for paginator.HasMorePages() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return &types.SourceFetchError{Target: a.bucket, Err: err}
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if a.limits.MaxFileSize > 0 && obj.Size != nil && *obj.Size > a.limits.MaxFileSize {
				continue
			}
			if err := a.processObject(ctx, *obj.Key, callback); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *S3Adapter) processObject(ctx context.Context, key string, callback Callback) error {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &types.SourceFetchError{Target: key, Err: err}
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return &types.BlobReadError{Path: key, Err: err}
	}
	if isBinary(content) {
		return nil
	}

	blobID := types.ComputeBlobID(content)
	origin := types.ExtendedOrigin{
		Payload: map[string]interface{}{
			"url":    fmt.Sprintf("s3://%s/%s", a.bucket, key),
			"bucket": a.bucket,
			"key":    key,
		},
	}
	return callback(content, blobID, origin)
}
