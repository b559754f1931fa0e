package adapter

import (
	"PetAdoptAPI/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// privateKeyPrefix marks image keys stored in the private bucket. They are served through presigned URLs.
const privateKeyPrefix = "private/"

const presignExpiry = time.Hour

// StorageAdapter turns stored pet image references into URLs a client can load.
type StorageAdapter struct {
	bucketPublic  string
	bucketPrivate string
	region        string
	publicDomain  string
	presignClient *s3.PresignClient
}

func NewStorageAdapter(cfg *config.AppConfig, s3Client *s3.Client) *StorageAdapter {
	var presignClient *s3.PresignClient
	if s3Client != nil {
		presignClient = s3.NewPresignClient(s3Client)
	}

	return &StorageAdapter{
		bucketPublic:  cfg.S3BucketPublic,
		bucketPrivate: cfg.S3BucketPrivate,
		region:        cfg.S3Region,
		publicDomain:  strings.TrimRight(cfg.S3PublicDomain, "/"),
		presignClient: presignClient,
	}
}

// ResolveURL returns ref unchanged when it is already an absolute URL. Bucket keys become
// public or presigned URLs. nil means there is no image to show. A nil adapter passes refs through.
func (s *StorageAdapter) ResolveURL(ctx context.Context, ref *string) *string {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return nil
	}

	value := strings.TrimSpace(*ref)
	if s == nil || strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return &value
	}

	if strings.HasPrefix(value, privateKeyPrefix) && s.bucketPrivate != "" {
		url, err := s.GetPresignedURL(ctx, value, presignExpiry)
		if err == nil {
			return &url
		}
		slog.Warn("Failed to presign pet image, falling back to public URL", "key", value, "error", err)
	}

	url := s.GetPublicURL(value)
	return &url
}

func (s *StorageAdapter) GetPublicURL(path string) string {
	key := strings.TrimLeft(filepath.ToSlash(path), "/")
	if s.publicDomain != "" {
		return fmt.Sprintf("%s/%s", s.publicDomain, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketPublic, s.region, key)
}

func (s *StorageAdapter) GetPresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	if s.presignClient == nil {
		return "", errors.New("presign client is not initialized")
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketPrivate),
		Key:    aws.String(filepath.ToSlash(path)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
