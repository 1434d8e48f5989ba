package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	"pokebattle-backend/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// objectPutter is the part of *s3.Client the backup service uses
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BackupService copies every collection of the store to an S3 bucket
type BackupService struct {
	store    *store.Store
	s3Client objectPutter
	bucket   string
	prefix   string
	now      func() time.Time
}

// NewBackupService creates an S3 client. Static credentials and a custom endpoint are
// optional; without them the default AWS credential chain is used.
func NewBackupService(
	st *store.Store,
	region, bucket, prefix, accessKey, secretKey, endpoint string,
) (*BackupService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &BackupService{
		store:    st,
		s3Client: s3Client,
		bucket:   bucket,
		prefix:   prefix,
		now:      time.Now,
	}, nil
}

// Backup uploads a snapshot of each collection and returns the uploaded keys
func (s *BackupService) Backup(ctx context.Context) ([]string, error) {
	stamp := s.now().UTC().Format("20060102T150405Z")

	names := s.store.Collections()
	sort.Strings(names)

	keys := make([]string, 0, len(names))
	for _, name := range names {
		records, err := s.store.Read(ctx, name)
		if err != nil {
			return keys, fmt.Errorf("failed to read %s: %w", name, err)
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return keys, fmt.Errorf("failed to encode %s: %w", name, err)
		}

		key := path.Join(s.prefix, stamp, name+".json")
		_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return keys, fmt.Errorf("failed to upload %s: %w", key, err)
		}
		keys = append(keys, key)
	}

	log.Info().
		Str("bucket", s.bucket).
		Strs("keys", keys).
		Msg("Backup uploaded")

	return keys, nil
}

// Run backs up on every interval tick until ctx is cancelled
func (s *BackupService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Backup(ctx); err != nil {
				log.Error().Err(err).Msg("Backup failed")
			}
		}
	}
}
