package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cartpod/internal/config"
	apperrors "cartpod/internal/errors"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

const keyPrefix = "food-carts/"

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// ObjectPutter is the part of the S3 API used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Swapped in tests.
var (
	loadAWSConfig         = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ImageStore uploads images to an S3 compatible bucket.
type ImageStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
	log     logrus.FieldLogger
}

// NewS3ImageStore builds an ImageStore from the S3 settings in cfg. Static
// credentials are used when both keys are set, otherwise the default AWS
// credential chain applies.
func NewS3ImageStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*ImageStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return NewImageStore(client, cfg.S3Bucket, publicBaseURL(cfg), log), nil
}

// NewImageStore creates a store writing to bucket; object URLs are baseURL/key.
func NewImageStore(client ObjectPutter, bucket, baseURL string, log logrus.FieldLogger) *ImageStore {
	return &ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Upload validates that r holds an image of at most MaxImageSize bytes and
// stores it under a random key.
func (s *ImageStore) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 || len(data) > MaxImageSize {
		return "", apperrors.ErrInvalidImage
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", apperrors.ErrInvalidImage
	}

	key := keyPrefix + uuid.NewString() + mtype.Extension()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mtype.String()),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	s.log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Info("image uploaded")
	return s.baseURL + "/" + key, nil
}

func publicBaseURL(cfg *config.Config) string {
	switch {
	case cfg.S3PublicURL != "":
		return cfg.S3PublicURL
	case cfg.S3Endpoint != "" && cfg.S3UsePathStyle:
		return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	case cfg.S3Endpoint != "":
		return strings.Replace(strings.TrimRight(cfg.S3Endpoint, "/"), "://", "://"+cfg.S3Bucket+".", 1)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
}
