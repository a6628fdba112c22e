// Package media stores worker audio recordings in S3-compatible object
// storage.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Tech-Society-SEC/SkillSync/internal/config"
)

// MaxAudioBytes caps a single upload.
const MaxAudioBytes = 20 << 20

var (
	// ErrDisabled is returned when no bucket is configured.
	ErrDisabled = errors.New("audio storage is not configured")
	// ErrUnsupportedType rejects content types outside audioTypes.
	ErrUnsupportedType = errors.New("unsupported audio type")
)

var audioTypes = map[string]string{
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
	"audio/wave":  "wav",
	"audio/ogg":   "ogg",
	"audio/webm":  "webm",
	"audio/mp4":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/aac":   "aac",
	"audio/flac":  "flac",
}

// Extension maps a content type to the file extension used in object keys.
func Extension(contentType string) (string, error) {
	ct, _, _ := strings.Cut(contentType, ";")
	ext, ok := audioTypes[strings.ToLower(strings.TrimSpace(ct))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	return ext, nil
}

// ObjectKey returns the key for a new recording of workerID.
func ObjectKey(workerID, ext string) string {
	return path.Join("workers", workerID, uuid.NewString()+"."+ext)
}

// putter is the subset of *s3.Client used for uploads.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AudioStore uploads recordings to one bucket.
type AudioStore struct {
	client putter
	bucket string
}

// NewAudioStore builds an S3 client from cfg. A custom endpoint selects an
// S3-compatible provider with path-style addressing.
func NewAudioStore(ctx context.Context, cfg config.S3Config) (*AudioStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
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
	return &AudioStore{client: client, bucket: cfg.Bucket}, nil
}

// Upload stores body for workerID and returns its s3:// location.
func (s *AudioStore) Upload(ctx context.Context, workerID, contentType string, body io.Reader, size int64) (string, error) {
	if s == nil {
		return "", ErrDisabled
	}
	ext, err := Extension(contentType)
	if err != nil {
		return "", err
	}

	key := ObjectKey(workerID, ext)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("put audio object: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
