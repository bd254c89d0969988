// AngelaMos | 2026
// s3.go

package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/carterperez-dev/academy-backend/internal/config"
	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/payment"
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// S3Store uploads proof-of-payment images to an S3-compatible bucket.
// A custom endpoint points it at minio in development.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ payment.ProofStore = (*S3Store)(nil)

func NewS3Store(
	ctx context.Context,
	cfg config.StorageConfig,
) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.KeyPrefix,
	}, nil
}

// Store decodes the base64 proof image, verifies it sniffs as an
// image, and uploads it under a key scoped to the payment id.
func (s *S3Store) Store(
	ctx context.Context,
	paymentID, encoded string,
) (string, error) {
	data, err := decodeImage(encoded)
	if err != nil {
		return "", err
	}

	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf(
			"unsupported proof content type %q: %w",
			contentType, core.ErrInvalidInput,
		)
	}

	key := fmt.Sprintf("%s/%s/%s%s", s.prefix, paymentID, uuid.New(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put proof object: %w", err)
	}

	return key, nil
}

// decodeImage accepts raw base64 or a data URI as browsers produce
// from a file input.
func decodeImage(encoded string) ([]byte, error) {
	if strings.HasPrefix(encoded, "data:") {
		_, after, ok := strings.Cut(encoded, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data uri: %w", core.ErrInvalidInput)
		}
		encoded = after
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode proof image: %w", core.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty proof image: %w", core.ErrInvalidInput)
	}

	return data, nil
}
