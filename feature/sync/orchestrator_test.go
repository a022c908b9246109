package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"guild-sync/core/database"
	"guild-sync/core/lock"
	"guild-sync/core/storage/mocks"
	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild"
	"guild-sync/feature/guild/models"
	guildsync "guild-sync/feature/sync"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) FetchGuildMetadata(ctx context.Context, region, realmSlug, guildSlug string) (*battlenet.GuildMetadata, error) {
	args := m.Called(ctx, region, realmSlug, guildSlug)
	meta, _ := args.Get(0).(*battlenet.GuildMetadata)
	return meta, args.Error(1)
}

func (m *mockGateway) FetchGuildRoster(ctx context.Context, region, realmSlug, guildSlug string) (*battlenet.RosterSnapshot, error) {
	args := m.Called(ctx, region, realmSlug, guildSlug)
	snap, _ := args.Get(0).(*battlenet.RosterSnapshot)
	return snap, args.Error(1)
}

func (m *mockGateway) FetchEnhancedCharacter(ctx context.Context, region, realmSlug, nameLower string) (*battlenet.EnhancedCharacter, error) {
	args := m.Called(ctx, region, realmSlug, nameLower)
	char, _ := args.Get(0).(*battlenet.EnhancedCharacter)
	return char, args.Error(1)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*guild.Repository, *gorm.DB) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, guild.Migrate(db))
	return guild.NewRepository(database.NewTracker(db, 0, zap.NewNop())), db
}

type member struct {
	name string
	rank int
}

func makeRoster(guildID int64, members ...member) *battlenet.RosterSnapshot {
	snap := &battlenet.RosterSnapshot{Guild: battlenet.GuildRef{ID: guildID, Name: "Stormwind Watch"}}
	for i, m := range members {
		snap.Members = append(snap.Members, battlenet.RosterMember{
			Character: battlenet.RosterCharacter{
				ID:            int64(1000 + i),
				Name:          m.name,
				Realm:         battlenet.RealmRef{Slug: "r1"},
				Level:         70,
				PlayableClass: battlenet.Ref{ID: 8},
			},
			Rank: m.rank,
		})
	}
	snap.Raw, _ = json.Marshal(snap)
	return snap
}

func makeMeta(id int64) *battlenet.GuildMetadata {
	return &battlenet.GuildMetadata{ID: id, Name: "Stormwind Watch", Raw: json.RawMessage(`{"id":77}`)}
}

func newOrchestrator(gw guildsync.Gateway, store guildsync.Store, opts ...guildsync.Option) *guildsync.Orchestrator {
	opts = append([]guildsync.Option{guildsync.WithClock(func() time.Time { return fixedNow })}, opts...)
	return guildsync.New(gw, store, guildsync.Config{StaleHours: 24, GuildBatchSize: 10, CharacterBatchSize: 10, Workers: 1}, zap.NewNop(), opts...)
}

func TestSyncGuild(t *testing.T) {
	repo, db := setupStore(t)
	ctx := context.Background()

	owner := models.User{Username: "thrall"}
	require.NoError(t, db.Create(&owner).Error)
	char1 := models.Character{Name: "Char1", Realm: "r1", Region: "us", UserID: &owner.ID}
	require.NoError(t, db.Create(&char1).Error)
	g := models.Guild{Name: "Stormwind Watch", Realm: "r1", Region: "us"}
	require.NoError(t, db.Create(&g).Error)

	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "stormwind-watch").Return(makeMeta(77), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "stormwind-watch").
		Return(makeRoster(77, member{"Char1", 0}, member{"Char2", 1}), nil).Once()

	orch := newOrchestrator(gw, repo)
	require.NoError(t, orch.SyncGuild(ctx, g))

	var stored models.Guild
	require.NoError(t, db.First(&stored, g.ID).Error)
	require.NotNil(t, stored.LeaderID)
	assert.Equal(t, owner.ID, *stored.LeaderID)
	assert.Equal(t, 2, stored.MemberCount)
	require.NotNil(t, stored.BnetGuildID)
	assert.Equal(t, int64(77), *stored.BnetGuildID)
	require.NotNil(t, stored.LastUpdated)
	assert.True(t, fixedNow.Equal(*stored.LastUpdated))

	var char2 models.Character
	require.NoError(t, db.Where("name = ?", "Char2").First(&char2).Error)
	assert.Equal(t, "us", char2.Region)
	assert.Equal(t, "Mage", char2.Class)
	assert.False(t, char2.IsMain)

	members, err := repo.GetCurrentMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, char1.ID, members[0].CharacterID)
	assert.Equal(t, char2.ID, members[1].CharacterID)

	ranks, err := repo.GetGuildRanks(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, ranks, 2)
	assert.Equal(t, "Guild Master", ranks[0].RankName)
	assert.Equal(t, 1, ranks[0].MemberCount)
	assert.Equal(t, "Rank 1", ranks[1].RankName)

	t.Run("SecondPassRemovesDeparted", func(t *testing.T) {
		gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "stormwind-watch").
			Return(makeRoster(77, member{"Char1", 0}, member{"Char3", 3}), nil).Once()

		require.NoError(t, orch.SyncGuild(ctx, g))

		members, err := repo.GetCurrentMembers(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "Char1", members[0].Name)
		assert.Equal(t, "Char3", members[1].Name)

		var departed models.GuildMember
		require.NoError(t, db.Where("character_id = ?", char2.ID).First(&departed).Error)
		assert.NotNil(t, departed.LeftAt)

		ranks, err := repo.GetGuildRanks(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, ranks, 3)
		// ranks missing from the roster keep their last count
		assert.Equal(t, 1, ranks[1].MemberCount)
		assert.Equal(t, 3, ranks[2].RankID)
		assert.Equal(t, 1, ranks[2].MemberCount)
	})
}

func TestSyncGuildFetchFailure(t *testing.T) {
	repo, db := setupStore(t)
	g := models.Guild{Name: "Gone", Realm: "r1", Region: "eu"}
	require.NoError(t, db.Create(&g).Error)

	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "eu", "r1", "gone").Return(makeMeta(1), nil)
	gw.On("FetchGuildRoster", mock.Anything, "eu", "r1", "gone").Return(nil, &battlenet.UpstreamError{Status: 404, Op: "roster"})

	err := newOrchestrator(gw, repo).SyncGuild(context.Background(), g)

	var stage *guildsync.StageError
	require.ErrorAs(t, err, &stage)
	assert.Equal(t, "fetch", stage.Stage)

	var stored models.Guild
	require.NoError(t, db.First(&stored, g.ID).Error)
	assert.Nil(t, stored.LastUpdated)
}

func TestSyncGuildArchivesRoster(t *testing.T) {
	repo, db := setupStore(t)
	g := models.Guild{Name: "Stormwind Watch", Realm: "r1", Region: "us"}
	require.NoError(t, db.Create(&g).Error)

	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "stormwind-watch").Return(makeMeta(77), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "stormwind-watch").Return(makeRoster(77, member{"Char1", 0}), nil)

	client := new(mocks.Client)
	key := "rosters/us/r1/stormwind-watch/1709294400.json"
	client.On("PutObject", mock.Anything, "snaps", key, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("bucket offline"))

	orch := newOrchestrator(gw, repo, guildsync.WithArchive(guildsync.NewArchive(client, "snaps")))

	// an archive failure does not fail the sync
	require.NoError(t, orch.SyncGuild(context.Background(), g))
	client.AssertExpectations(t)
}

func TestSyncCharacter(t *testing.T) {
	repo, db := setupStore(t)
	ctx := context.Background()

	g := models.Guild{Name: "Night Watch", Realm: "r1", Region: "eu"}
	bnet := int64(55)
	g.BnetGuildID = &bnet
	require.NoError(t, db.Create(&g).Error)

	linked := models.Character{Name: "Jaina", Realm: "r1", Region: "us"}
	orphan := models.Character{Name: "Arthas", Realm: "r1", Region: "us"}
	unknown := models.Character{Name: "Nobody", Realm: "r1"}
	require.NoError(t, db.Create(&[]*models.Character{&linked, &orphan, &unknown}).Error)

	gw := new(mockGateway)
	gw.On("FetchEnhancedCharacter", mock.Anything, "us", "r1", "jaina").Return(&battlenet.EnhancedCharacter{
		ID:             9,
		Level:          71,
		CharacterClass: battlenet.Ref{ID: 8, Name: "Mage"},
		Guild:          &battlenet.GuildRef{ID: 55},
		Profile:        json.RawMessage(`{"id":9}`),
		Equipment:      json.RawMessage(`{}`),
		Professions:    json.RawMessage(`{}`),
	}, nil)
	gw.On("FetchEnhancedCharacter", mock.Anything, "us", "r1", "arthas").Return(nil, nil)

	orch := newOrchestrator(gw, repo)

	t.Run("LinksTrackedGuild", func(t *testing.T) {
		outcome, err := orch.SyncCharacter(ctx, linked)
		require.NoError(t, err)
		assert.Equal(t, guildsync.Synced, outcome)

		var stored models.Character
		require.NoError(t, db.First(&stored, linked.ID).Error)
		assert.Equal(t, 71, stored.Level)
		assert.Equal(t, "Mage", stored.Class)
		assert.Equal(t, "eu", stored.Region)
		require.NotNil(t, stored.GuildID)
		assert.Equal(t, g.ID, *stored.GuildID)
		require.NotNil(t, stored.LastSyncedAt)
	})

	t.Run("NotFoundIsSkipped", func(t *testing.T) {
		outcome, err := orch.SyncCharacter(ctx, orphan)
		require.NoError(t, err)
		assert.Equal(t, guildsync.Skipped, outcome)

		var stored models.Character
		require.NoError(t, db.First(&stored, orphan.ID).Error)
		assert.Nil(t, stored.LastSyncedAt)
	})

	t.Run("UnknownRegionMakesNoCall", func(t *testing.T) {
		outcome, err := orch.SyncCharacter(ctx, unknown)
		require.NoError(t, err)
		assert.Equal(t, guildsync.Skipped, outcome)
		gw.AssertNotCalled(t, "FetchEnhancedCharacter", mock.Anything, mock.Anything, mock.Anything, "nobody")
	})

	t.Run("ByID", func(t *testing.T) {
		_, err := orch.SyncCharacterByID(ctx, 9999)
		assert.ErrorIs(t, err, guildsync.ErrNotFound)
	})
}

func TestRunSync(t *testing.T) {
	repo, db := setupStore(t)

	broken := models.Guild{Name: "Broken", Realm: "r1", Region: "us"}
	healthy := models.Guild{Name: "Healthy", Realm: "r1", Region: "us"}
	fresh := models.Guild{Name: "Fresh", Realm: "r1", Region: "us", LastUpdated: &fixedNow}
	require.NoError(t, db.Create(&[]*models.Guild{&broken, &healthy, &fresh}).Error)

	chars := []models.Character{
		{Name: "NoRegion", Realm: "r1"},
		{Name: "Panics", Realm: "r1", Region: "us"},
		{Name: "Missing", Realm: "r1", Region: "us"},
	}
	require.NoError(t, db.Create(&chars).Error)

	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "broken").Return(nil, &battlenet.AuthError{Err: errors.New("denied")})
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "broken").Return(makeRoster(1), nil)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "healthy").Return(makeMeta(2), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "healthy").Return(makeRoster(2, member{"Solo", 0}), nil)
	gw.On("FetchEnhancedCharacter", mock.Anything, "us", "r1", "panics").Run(func(mock.Arguments) {
		panic("unexpected payload")
	}).Return(nil, nil)
	gw.On("FetchEnhancedCharacter", mock.Anything, "us", "r1", "missing").Return(nil, nil)
	gw.On("FetchEnhancedCharacter", mock.Anything, "us", "r1", "solo").Return(nil, nil)

	orch := newOrchestrator(gw, repo)
	require.NoError(t, orch.RunSync(context.Background()))

	status := orch.Status()
	assert.Equal(t, "idle", status.State)
	assert.NotEmpty(t, status.RunID)
	assert.Equal(t, guildsync.Counts{Synced: 1, Failed: 1}, status.Guilds)
	// Solo was created by the healthy guild's roster and is stale too
	assert.Equal(t, guildsync.Counts{Failed: 1, Skipped: 3}, status.Characters)
	require.NotNil(t, status.FinishedAt)

	var healthyRow, brokenRow models.Guild
	require.NoError(t, db.First(&healthyRow, healthy.ID).Error)
	assert.NotNil(t, healthyRow.LastUpdated)
	require.NoError(t, db.First(&brokenRow, broken.ID).Error)
	assert.Nil(t, brokenRow.LastUpdated)

	gw.AssertNotCalled(t, "FetchGuildRoster", mock.Anything, "us", "r1", "fresh")
}

func TestRunSyncRejectsOverlap(t *testing.T) {
	repo, db := setupStore(t)
	g := models.Guild{Name: "Slow", Realm: "r1", Region: "us"}
	require.NoError(t, db.Create(&g).Error)

	entered := make(chan struct{})
	release := make(chan struct{})

	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "slow").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(makeMeta(3), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "slow").Return(makeRoster(3), nil)

	orch := newOrchestrator(gw, repo)

	done := make(chan error, 1)
	go func() { done <- orch.RunSync(context.Background()) }()

	<-entered
	assert.Equal(t, guildsync.Running, orch.State())
	assert.ErrorIs(t, orch.RunSync(context.Background()), guildsync.ErrSyncInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, guildsync.Idle, orch.State())
	gw.AssertNumberOfCalls(t, "FetchGuildMetadata", 1)
}

func TestRunSyncHonoursDistributedLock(t *testing.T) {
	repo, _ := setupStore(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	other := lock.NewRedisLocker(client, "guildsync:run", time.Minute)
	ok, err := other.TryAcquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	gw := new(mockGateway)
	orch := newOrchestrator(gw, repo, guildsync.WithLocker(lock.NewRedisLocker(client, "guildsync:run", time.Minute)))

	assert.ErrorIs(t, orch.RunSync(context.Background()), guildsync.ErrSyncInProgress)
	assert.Equal(t, guildsync.Idle, orch.State())

	require.NoError(t, other.Release(context.Background()))
	assert.NoError(t, orch.RunSync(context.Background()))
	assert.False(t, mr.Exists("guildsync:run"))
}

func TestSyncGuildMatchesAccentedCharacters(t *testing.T) {
	repo, db := setupStore(t)
	ctx := context.Background()

	owner := models.User{Username: "elise"}
	require.NoError(t, db.Create(&owner).Error)
	elise := models.Character{Name: "Élise", Realm: "r1", Region: "us", UserID: &owner.ID}
	require.NoError(t, db.Create(&elise).Error)
	g := models.Guild{Name: "Stormwind Watch", Realm: "r1", Region: "us"}
	require.NoError(t, db.Create(&g).Error)

	gw := new(mockGateway)
	gw.On("FetchGuildMetadata", mock.Anything, "us", "r1", "stormwind-watch").Return(makeMeta(77), nil)
	gw.On("FetchGuildRoster", mock.Anything, "us", "r1", "stormwind-watch").Return(makeRoster(77, member{"ÉLISE", 0}), nil)

	require.NoError(t, newOrchestrator(gw, repo).SyncGuild(ctx, g))

	var stored models.Guild
	require.NoError(t, db.First(&stored, g.ID).Error)
	require.NotNil(t, stored.LeaderID)
	assert.Equal(t, owner.ID, *stored.LeaderID)

	var chars int64
	require.NoError(t, db.Model(&models.Character{}).Count(&chars).Error)
	assert.Equal(t, int64(1), chars)

	members, err := repo.GetCurrentMembers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, elise.ID, members[0].CharacterID)
}

type budgetedGateway struct {
	*mockGateway
	left int
}

func (g budgetedGateway) Remaining() int { return g.left }

func TestStatusReportsQuotaAndSlowTransactions(t *testing.T) {
	repo, _ := setupStore(t)

	status := newOrchestrator(budgetedGateway{mockGateway: new(mockGateway), left: 42}, repo).Status()
	require.NotNil(t, status.QuotaRemaining)
	assert.Equal(t, 42, *status.QuotaRemaining)
	require.NotNil(t, status.SlowTransactions)
	assert.Zero(t, *status.SlowTransactions)

	bare := newOrchestrator(new(mockGateway), repo).Status()
	assert.Nil(t, bare.QuotaRemaining)
}
