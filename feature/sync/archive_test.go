package sync_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"guild-sync/core/storage/mocks"
	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild/models"
	guildsync "guild-sync/feature/sync"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestArchiveStore(t *testing.T) {
	client := new(mocks.Client)
	archive := guildsync.NewArchive(client, "snaps")
	g := models.Guild{Name: "Knights of the Ebon Blade", Realm: "area-52", Region: "us"}
	snap := makeRoster(77, member{"Boss", 0})

	key := "rosters/us/area-52/knights-of-the-ebon-blade/1709294400.json"
	assert.Equal(t, key, archive.Key(g, fixedNow))

	var uploaded []byte
	client.On("PutObject", mock.Anything, "snaps", key, mock.Anything, int64(len(snap.Raw)),
		mock.MatchedBy(func(opts minio.PutObjectOptions) bool { return opts.ContentType == "application/json" })).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{Key: key}, nil)

	got, err := archive.Store(context.Background(), g, snap, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, key, got)
	assert.True(t, bytes.Equal(snap.Raw, uploaded))
	client.AssertExpectations(t)
}

func TestArchiveStoreEncodesWhenRawMissing(t *testing.T) {
	client := new(mocks.Client)
	archive := guildsync.NewArchive(client, "snaps")
	snap := &battlenet.RosterSnapshot{Guild: battlenet.GuildRef{ID: 1}, Members: []battlenet.RosterMember{}}

	var uploaded []byte
	client.On("PutObject", mock.Anything, "snaps", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	_, err := archive.Store(context.Background(), models.Guild{Name: "Solo", Realm: "r1", Region: "eu"}, snap, fixedNow)
	require.NoError(t, err)
	assert.Contains(t, string(uploaded), `"members":[]`)
}
