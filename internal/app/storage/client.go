package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"roombot/internal/pkg/logx"
)

const (
	backupContentType = "application/json"
	backupPrefix      = "backups"
)

// s3Backups writes ban list snapshots to an S3-compatible bucket.
type s3Backups struct {
	bucket    string
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	logger    zerolog.Logger
}

// newS3Backups builds the S3 client with static credentials. A custom endpoint switches to
// path-style addressing for S3-compatible stores.
func newS3Backups(ctx context.Context, cfg ServiceConfig) (*s3Backups, error) {
	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("loading S3 configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Backups{
		bucket:    cfg.S3BucketName,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		logger:    logx.Component("backup").With().Str("bucket", cfg.S3BucketName).Logger(),
	}, nil
}

// backupKey names the object of a snapshot: backups/<room>/<unix>.json
func backupKey(room string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%d.json", backupPrefix, room, at.Unix())
}

func encodeSnapshot(snapshot Snapshot) ([]byte, error) {
	return json.MarshalIndent(snapshot, "", "  ")
}

// snapshotMetadata tags the object with the room and the entry count of each list.
func snapshotMetadata(snapshot Snapshot) map[string]string {
	meta := map[string]string{"room": snapshot.Room}
	for list, entries := range snapshot.Lists {
		meta[list] = strconv.Itoa(len(entries))
	}
	return meta
}

func (b *s3Backups) Upload(ctx context.Context, snapshot Snapshot) (string, error) {
	body, err := encodeSnapshot(snapshot)
	if err != nil {
		return "", fmt.Errorf("encoding backup: %w", err)
	}

	key := backupKey(snapshot.Room, snapshot.TakenAt)
	_, err = b.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(backupContentType),
		Metadata:    snapshotMetadata(snapshot),
	})
	if err != nil {
		return "", fmt.Errorf("uploading backup %s: %w", key, err)
	}

	b.logger.Info().Str("room", snapshot.Room).Str("key", key).Int("bytes", len(body)).Msg("Ban list backup uploaded.")
	return key, nil
}

func (b *s3Backups) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(duration))
	if err != nil {
		return "", fmt.Errorf("presigning backup %s: %w", key, err)
	}
	return req.URL, nil
}
