package s3

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const defaultSignedURLTTL = 5 * time.Minute

// AssetStore exposes the two operations the derivative resolver needs
// from the object store: an existence probe and presigned GET URLs.
type AssetStore struct {
	client *minio.Client
	bucket string
}

func NewAssetStore(client *minio.Client, bucket string) *AssetStore {
	return &AssetStore{
		client: client,
		bucket: strings.TrimSpace(bucket),
	}
}

// Exists reports whether an object is present without fetching it.
func (s *AssetStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("s3 client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return false, nil
	}

	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %w", key, err)
	}

	return true, nil
}

func (s *AssetStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("s3 client is nil")
	}
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("object key is required")
	}
	if ttl <= 0 {
		ttl = defaultSignedURLTTL
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}

	return presigned.String(), nil
}
