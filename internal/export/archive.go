package export

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archive stores rendered PDFs in S3-compatible object storage so finance has
// an immutable copy of every document that left the building.
type Archive struct {
	client *minio.Client
	bucket string
}

// NewArchive connects to MinIO and ensures the bucket exists.
func NewArchive(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Archive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		log.Printf("export: created archive bucket %s", bucket)
	}

	return &Archive{client: client, bucket: bucket}, nil
}

// Store uploads a rendered PDF under kind/year/filename and returns the
// object key.
func (a *Archive) Store(ctx context.Context, kind Kind, result *Result) (string, error) {
	key := fmt.Sprintf("%s/%d/%s", kind, time.Now().Year(), result.Filename)
	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(result.Data), int64(len(result.Data)),
		minio.PutObjectOptions{ContentType: result.MimeType})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	return key, nil
}
