package sync

import (
	"context"
	"time"

	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// LeaderLookup resolves the user owning a character.
type LeaderLookup interface {
	FindUserByCharacterNameRealm(ctx context.Context, name, realm string) (*models.User, error)
}

// GuildLookup resolves a local guild from its upstream id.
type GuildLookup interface {
	FindGuildByUpstreamID(ctx context.Context, bnetGuildID int64) (*models.Guild, error)
}

// BuildGuildUpdate turns fetched guild data into the columns written to the guild row.
// The leader is the owner of the rank 0 character; when it cannot be resolved the
// leader is cleared and the rest of the update is kept.
func BuildGuildUpdate(ctx context.Context, users LeaderLookup, meta *battlenet.GuildMetadata, snapshot *battlenet.RosterSnapshot, now time.Time, logger *zap.Logger) models.GuildUpdate {
	update := models.GuildUpdate{
		BnetGuildID:    meta.ID,
		GuildData:      datatypes.JSON(meta.Raw),
		RosterData:     datatypes.JSON(snapshot.Raw),
		MemberCount:    len(snapshot.Members),
		LastUpdated:    now,
		LastRosterSync: now,
	}

	leader, ok := snapshot.Leader()
	if !ok {
		logger.Warn("Roster has no rank 0 member")
		return update
	}

	name, realm := leader.Character.Name, leader.Character.Realm.Slug
	user, err := users.FindUserByCharacterNameRealm(ctx, name, realm)
	if err != nil {
		logger.Error("Leader lookup failed",
			zap.String("leader", name),
			zap.String("realm", realm),
			zap.Error(err),
		)
		return update
	}
	if user == nil {
		logger.Debug("Leader character has no owner", zap.String("leader", name), zap.String("realm", realm))
		return update
	}

	id := user.ID
	update.LeaderID = &id
	return update
}

// BuildCharacterUpdate turns an enhanced profile into the columns written to the character row.
// A guild reported upstream links the character when that guild is tracked locally,
// and the character then takes the guild's region.
func BuildCharacterUpdate(ctx context.Context, guilds GuildLookup, data *battlenet.EnhancedCharacter, now time.Time, logger *zap.Logger) models.CharacterUpdate {
	update := models.CharacterUpdate{
		ProfileData:     datatypes.JSON(data.Profile),
		EquipmentData:   datatypes.JSON(data.Equipment),
		ProfessionsData: datatypes.JSON(data.Professions),
		Level:           data.Level,
		Class:           data.ClassName(),
		BnetID:          data.ID,
		LastSyncedAt:    now,
	}
	if data.MythicKeystone != nil {
		update.MythicKeystoneData = datatypes.JSON(data.MythicKeystone)
	}

	if data.Guild == nil {
		return update
	}

	g, err := guilds.FindGuildByUpstreamID(ctx, data.Guild.ID)
	if err != nil {
		logger.Error("Guild lookup failed", zap.Int64("bnet_guild_id", data.Guild.ID), zap.Error(err))
		return update
	}
	if g == nil {
		logger.Debug("Character guild is not tracked", zap.Int64("bnet_guild_id", data.Guild.ID))
		return update
	}

	gid, region := g.ID, g.Region
	update.GuildID = &gid
	update.Region = &region
	return update
}
