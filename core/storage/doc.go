// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so fetched roster snapshots can be archived to
// AWS S3 or a self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface exposes only the calls the archive needs, which keeps it
// easy to mock (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
