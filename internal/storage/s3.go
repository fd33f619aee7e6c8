package storage

import (
	"alcyxob/fitcoach/internal/config"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	log "github.com/sirupsen/logrus"
)

// s3API is the part of *s3.Client the storage uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Storage implements ObjectStorage on an S3-compatible backend.
type s3Storage struct {
	client     s3API
	bucketName string
	publicBase string
}

// NewS3Storage creates the avatar storage. Path-style addressing is forced so
// MinIO and other S3-compatible services work.
func NewS3Storage(ctx context.Context, cfg config.S3Config) (ObjectStorage, error) {
	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx,
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	log.Infof("S3 storage initialized for endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)
	return newS3Storage(client, cfg), nil
}

func newS3Storage(client s3API, cfg config.S3Config) *s3Storage {
	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.BucketName
	}
	return &s3Storage{
		client:     client,
		bucketName: cfg.BucketName,
		publicBase: strings.TrimRight(publicBase, "/"),
	}
}

func (s *s3Storage) Upload(ctx context.Context, path string, body []byte, contentType string, overwrite bool) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyObject
	}
	path = strings.TrimLeft(path, "/")

	if !overwrite {
		exists, err := s.exists(ctx, path)
		if err != nil {
			return "", err
		}
		if exists {
			return "", ErrObjectExists
		}
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(path),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		log.Errorf("s3: put object '%s': %s", path, err)
		return "", err
	}
	return path, nil
}

func (s *s3Storage) exists(ctx context.Context, path string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(path),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}

func (s *s3Storage) PublicURL(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicBase + "/" + strings.Join(segments, "/")
}

func (s *s3Storage) Delete(ctx context.Context, path string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(strings.TrimLeft(path, "/")),
	})
	if err != nil {
		log.Errorf("s3: delete object '%s' from bucket '%s': %s", path, s.bucketName, err)
		return err
	}
	log.Debugf("s3: deleted object '%s' from bucket '%s'", path, s.bucketName)
	return nil
}
