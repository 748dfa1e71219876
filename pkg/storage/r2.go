package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"trendora-backend/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Storage hosts product media on Cloudflare R2 through the S3 API.
// The catalog only keeps the resulting (URL, object key) pair; deletion
// targets the key directly.
type R2Storage struct {
	client        *s3.Client
	bucketName    string
	publicURL     string
	uploadTimeout time.Duration
}

func NewR2Storage(ctx context.Context, accountId, accessKey, secretKey, bucketName, publicURL string, uploadTimeout time.Duration) (*R2Storage, error) {
	r2Resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountId),
		}, nil
	})

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithEndpointResolverWithOptions(r2Resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &R2Storage{
		client:        client,
		bucketName:    bucketName,
		publicURL:     strings.TrimSuffix(publicURL, "/"),
		uploadTimeout: uploadTimeout,
	}, nil
}

// UploadBuffer uploads a byte slice as a file (used for processed images).
// Returns the public URL and the object key.
func (s *R2Storage) UploadBuffer(ctx context.Context, data []byte, contentType string) (string, string, error) {
	// 1. Determine Extension from Content-Type
	ext := ".bin"
	switch contentType {
	case "image/webp":
		ext = ".webp"
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	}

	// 2. Generate Key
	key := fmt.Sprintf("products/%s%s", utils.GenerateUUID(), ext)

	// 3. Create Reader
	reader := bytes.NewReader(data)

	// 4. Create context
	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	// 5. Upload
	_, err := s.client.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload buffer to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), key, nil
}

// DeleteFile deletes a hosted object by its key. Accepts a full public URL
// too, for records that stored one as the handle.
func (s *R2Storage) DeleteFile(ctx context.Context, publicID string) error {
	key := publicID
	if strings.HasPrefix(publicID, s.publicURL) {
		key = strings.TrimPrefix(publicID, s.publicURL)
		key = strings.TrimPrefix(key, "/")
	}

	if key == "" {
		return fmt.Errorf("invalid media key")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from R2: %w", err)
	}

	return nil
}
