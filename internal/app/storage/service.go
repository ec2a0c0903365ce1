/*
Package storage uploads ban list backups to S3-compatible object storage.
*/
package storage

import (
	"context"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Snapshot is the JSON document written for one backup.
type Snapshot struct {
	Room    string              `json:"room"`
	TakenAt time.Time           `json:"takenAt"`
	Lists   map[string][]string `json:"lists"`
}

// BackupService defines the public interface for the backup storage service.
type BackupService interface {
	// Upload stores snapshot and returns the object key it was written under.
	Upload(ctx context.Context, snapshot Snapshot) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a stored backup.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)
}

// NewBackupService is the factory function for BackupService.
func NewBackupService(ctx context.Context, cfg ServiceConfig) (BackupService, error) {
	// Currently, only S3 compatible implementations are supported.
	return newS3Backups(ctx, cfg)
}
