package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"guild-sync/core/storage"
	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild/models"

	"github.com/minio/minio-go/v7"
)

// Archive stores fetched roster snapshots in object storage.
type Archive struct {
	client storage.Client
	bucket string
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client storage.Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// Key returns the object key of a snapshot taken at.
func (a *Archive) Key(g models.Guild, at time.Time) string {
	return fmt.Sprintf("rosters/%s/%s/%s/%d.json", g.Region, g.Realm, models.Slug(g.Name), at.Unix())
}

// Store uploads the snapshot and returns its key.
func (a *Archive) Store(ctx context.Context, g models.Guild, snapshot *battlenet.RosterSnapshot, at time.Time) (string, error) {
	body := []byte(snapshot.Raw)
	if len(body) == 0 {
		var err error
		if body, err = json.Marshal(snapshot); err != nil {
			return "", fmt.Errorf("failed to encode roster: %w", err)
		}
	}

	key := a.Key(g, at)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}
