package guild

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guild-sync/core/database"
	"guild-sync/feature/guild/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lookupChunk bounds the IN list of a single character lookup.
const lookupChunk = 500

// MemberTx is the membership write surface available inside WithMemberTx.
type MemberTx interface {
	// BulkCreateMembers inserts rows, reviving departed rows for the same character.
	BulkCreateMembers(rows []models.GuildMember) error
	// BulkUpdateMembers applies updates one row at a time.
	BulkUpdateMembers(updates []models.MemberUpdate) error
	// BulkDeleteMembers marks the rows as departed.
	BulkDeleteMembers(ids []uint) error
}

// Repository persists guilds, characters, memberships and ranks.
type Repository struct {
	tracker *database.Tracker
	now     func() time.Time
}

// NewRepository creates a repository on top of tracker.
func NewRepository(tracker *database.Tracker) *Repository {
	return &Repository{
		tracker: tracker,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates every table, then fills lookup keys on rows
// written before the key columns existed.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return dbError("migrate", err)
	}
	return dbError("backfill character keys", backfillCharacterKeys(db))
}

func backfillCharacterKeys(db *gorm.DB) error {
	var rows []models.Character
	return db.Select("id", "name", "realm").
		Where("name_key IS NULL OR name_key = ''").
		FindInBatches(&rows, lookupChunk, func(_ *gorm.DB, _ int) error {
			for _, c := range rows {
				key := c.Key()
				err := db.Model(&models.Character{}).Where("id = ?", c.ID).
					UpdateColumns(map[string]interface{}{"name_key": key.Name, "realm_key": key.Realm}).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// SlowTransactions returns how many transactions exceeded the slow threshold.
func (r *Repository) SlowTransactions() int64 {
	return r.tracker.SlowCount()
}

func (r *Repository) db(ctx context.Context) *gorm.DB {
	return r.tracker.DB().WithContext(ctx)
}

// limited applies n as a row limit; zero or less means no limit.
func limited(db *gorm.DB, n int) *gorm.DB {
	if n > 0 {
		return db.Limit(n)
	}
	return db
}

// FindStaleGuilds returns up to limit guilds last updated before cutoff,
// never-updated guilds first, then oldest first.
func (r *Repository) FindStaleGuilds(ctx context.Context, cutoff time.Time, limit int) ([]models.Guild, error) {
	var guilds []models.Guild
	err := limited(r.db(ctx), limit).
		Where("last_updated IS NULL OR last_updated < ?", cutoff).
		Order("last_updated IS NOT NULL, last_updated ASC, id ASC").
		Find(&guilds).Error
	return guilds, dbError("find stale guilds", err)
}

// FindStaleCharacters returns up to limit characters last synced before cutoff,
// never-synced characters first, then oldest first.
func (r *Repository) FindStaleCharacters(ctx context.Context, cutoff time.Time, limit int) ([]models.Character, error) {
	var chars []models.Character
	err := limited(r.db(ctx), limit).
		Where("last_synced_at IS NULL OR last_synced_at < ?", cutoff).
		Order("last_synced_at IS NOT NULL, last_synced_at ASC, id ASC").
		Find(&chars).Error
	return chars, dbError("find stale characters", err)
}

// GetGuild returns the guild with id, or nil when it does not exist.
func (r *Repository) GetGuild(ctx context.Context, id uint) (*models.Guild, error) {
	var g models.Guild
	err := r.db(ctx).First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("get guild", err)
	}
	return &g, nil
}

// AddGuild registers a guild for syncing, returning the existing row if it is already tracked.
func (r *Repository) AddGuild(ctx context.Context, name, realm, region string) (*models.Guild, error) {
	g := models.Guild{Name: name, Realm: models.Slug(realm), Region: strings.ToLower(region)}
	err := r.db(ctx).
		Where(models.Guild{Name: g.Name, Realm: g.Realm, Region: g.Region}).
		FirstOrCreate(&g).Error
	if err != nil {
		return nil, dbError("add guild", err)
	}
	return &g, nil
}

// GetCharacter returns the character with id, or nil when it does not exist.
func (r *Repository) GetCharacter(ctx context.Context, id uint) (*models.Character, error) {
	var c models.Character
	err := r.db(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("get character", err)
	}
	return &c, nil
}

// UpdateGuild writes a sync result to the guild row.
func (r *Repository) UpdateGuild(ctx context.Context, id uint, update models.GuildUpdate) error {
	err := r.db(ctx).Model(&models.Guild{}).Where("id = ?", id).Updates(update.Columns()).Error
	return dbError("update guild", err)
}

// FindGuildByUpstreamID returns the guild carrying the upstream id, or nil.
func (r *Repository) FindGuildByUpstreamID(ctx context.Context, bnetGuildID int64) (*models.Guild, error) {
	var g models.Guild
	err := r.db(ctx).Where("bnet_guild_id = ?", bnetGuildID).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("find guild by upstream id", err)
	}
	return &g, nil
}

// FindUserByCharacterNameRealm returns the owner of the named character, or nil.
// Name and realm are matched case-insensitively.
func (r *Repository) FindUserByCharacterNameRealm(ctx context.Context, name, realm string) (*models.User, error) {
	key := models.NewCharacterKey(name, realm)

	var u models.User
	err := r.db(ctx).
		Joins("JOIN characters ON characters.user_id = users.id").
		Where("characters.name_key = ? AND characters.realm_key = ?", key.Name, key.Realm).
		Order("users.id").
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("find user by character", err)
	}
	return &u, nil
}

// FindCharactersByNameRealmPairs maps every stored character matching one of keys to its id.
func (r *Repository) FindCharactersByNameRealmPairs(ctx context.Context, keys []models.CharacterKey) (map[models.CharacterKey]uint, error) {
	out := make(map[models.CharacterKey]uint, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	wanted := make(map[models.CharacterKey]bool, len(keys))
	names := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
		if !seen[k.Name] {
			seen[k.Name] = true
			names = append(names, k.Name)
		}
	}

	for start := 0; start < len(names); start += lookupChunk {
		end := start + lookupChunk
		if end > len(names) {
			end = len(names)
		}

		var rows []models.Character
		err := r.db(ctx).
			Select("id", "name", "realm").
			Where("name_key IN ?", names[start:end]).
			Order("id").
			Find(&rows).Error
		if err != nil {
			return nil, dbError("find characters", err)
		}

		for _, c := range rows {
			k := c.Key()
			if !wanted[k] {
				continue
			}
			if _, dup := out[k]; !dup {
				out[k] = c.ID
			}
		}
	}

	return out, nil
}

// CreateCharacter inserts a character and returns its id.
func (r *Repository) CreateCharacter(ctx context.Context, c models.NewCharacter) (uint, error) {
	row := c.Model()
	if err := r.db(ctx).Create(&row).Error; err != nil {
		return 0, dbError(fmt.Sprintf("create character %s", c.Name), err)
	}
	return row.ID, nil
}

// UpdateCharacter writes a profile sync result to the character row.
func (r *Repository) UpdateCharacter(ctx context.Context, id uint, update models.CharacterUpdate) error {
	err := r.db(ctx).Model(&models.Character{}).Where("id = ?", id).Updates(update.Columns()).Error
	return dbError("update character", err)
}

// GetGuildRanks returns the guild's ranks ordered by rank id.
func (r *Repository) GetGuildRanks(ctx context.Context, guildID uint) ([]models.GuildRank, error) {
	var ranks []models.GuildRank
	err := r.db(ctx).Where("guild_id = ?", guildID).Order("rank_id").Find(&ranks).Error
	return ranks, dbError("get guild ranks", err)
}

// UpsertGuildRank returns the rank row, creating it with name when missing.
// An existing row keeps its name.
func (r *Repository) UpsertGuildRank(ctx context.Context, guildID uint, rankID int, name string) (models.GuildRank, error) {
	rank := models.GuildRank{GuildID: guildID, RankID: rankID}
	err := r.db(ctx).
		Where(models.GuildRank{GuildID: guildID, RankID: rankID}).
		Attrs(models.GuildRank{RankName: name}).
		FirstOrCreate(&rank).Error
	if err != nil {
		return models.GuildRank{}, dbError("upsert guild rank", err)
	}
	return rank, nil
}

// SetRankMemberCount stores the member count of one rank.
func (r *Repository) SetRankMemberCount(ctx context.Context, guildID uint, rankID, count int) error {
	err := r.db(ctx).Model(&models.GuildRank{}).
		Where("guild_id = ? AND rank_id = ?", guildID, rankID).
		Update("member_count", count).Error
	return dbError("set rank member count", err)
}

// GetCurrentMembers returns the guild's current members joined with their characters.
func (r *Repository) GetCurrentMembers(ctx context.Context, guildID uint) ([]models.MemberView, error) {
	var views []models.MemberView
	err := r.db(ctx).
		Table("guild_members").
		Select("guild_members.id, guild_members.guild_id, guild_members.character_id, guild_members.member_rank, " +
			"characters.name, characters.realm, characters.class, characters.level, " +
			"characters.user_id, characters.toy_hash, characters.is_main").
		Joins("JOIN characters ON characters.id = guild_members.character_id").
		Where("guild_members.guild_id = ? AND guild_members.left_at IS NULL", guildID).
		Order("guild_members.id").
		Scan(&views).Error
	return views, dbError("get current members", err)
}

// SetMainFlags stores the guild-scoped main flag of every current member in one transaction.
func (r *Repository) SetMainFlags(ctx context.Context, guildID uint, mains, alts []uint) error {
	err := r.tracker.Transaction(ctx, fmt.Sprintf("guild_main_flags:%d", guildID), func(tx *gorm.DB) error {
		if err := setMain(tx, guildID, mains, true); err != nil {
			return err
		}
		return setMain(tx, guildID, alts, false)
	})
	return dbError("set main flags", err)
}

func setMain(tx *gorm.DB, guildID uint, characterIDs []uint, isMain bool) error {
	if len(characterIDs) == 0 {
		return nil
	}
	return tx.Model(&models.GuildMember{}).
		Where("guild_id = ? AND character_id IN ? AND left_at IS NULL", guildID, characterIDs).
		Update("is_main", isMain).Error
}

// WithMemberTx runs fn in one transaction scoped to the guild's membership rows.
func (r *Repository) WithMemberTx(ctx context.Context, guildID uint, fn func(tx MemberTx) error) error {
	err := r.tracker.Transaction(ctx, fmt.Sprintf("guild_members:%d", guildID), func(tx *gorm.DB) error {
		return fn(&memberTx{tx: tx, guildID: guildID, now: r.now()})
	})
	return dbError("member transaction", err)
}

type memberTx struct {
	tx      *gorm.DB
	guildID uint
	now     time.Time
}

func (m *memberTx) BulkCreateMembers(rows []models.GuildMember) error {
	if len(rows) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CharacterID)
	}

	var departed []uint
	err := m.tx.Model(&models.GuildMember{}).
		Where("guild_id = ? AND character_id IN ? AND left_at IS NOT NULL", m.guildID, ids).
		Pluck("character_id", &departed).Error
	if err != nil {
		return err
	}
	revive := make(map[uint]bool, len(departed))
	for _, id := range departed {
		revive[id] = true
	}

	fresh := make([]models.GuildMember, 0, len(rows))
	for _, row := range rows {
		if !revive[row.CharacterID] {
			row.GuildID = m.guildID
			fresh = append(fresh, row)
			continue
		}
		err := m.tx.Model(&models.GuildMember{}).
			Where("guild_id = ? AND character_id = ?", m.guildID, row.CharacterID).
			Updates(map[string]interface{}{
				"member_rank": row.Rank,
				"member_data": row.MemberData,
				"joined_at":   row.JoinedAt,
				"left_at":     nil,
			}).Error
		if err != nil {
			return err
		}
	}

	if len(fresh) == 0 {
		return nil
	}
	return m.tx.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "guild_id"}, {Name: "character_id"}},
			DoNothing: true,
		}).
		CreateInBatches(fresh, 200).Error
}

func (m *memberTx) BulkUpdateMembers(updates []models.MemberUpdate) error {
	for _, u := range updates {
		cols := map[string]interface{}{"member_data": u.MemberData}
		if u.Rank != nil {
			cols["member_rank"] = *u.Rank
		}
		err := m.tx.Model(&models.GuildMember{}).
			Where("id = ? AND guild_id = ?", u.ID, m.guildID).
			Updates(cols).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *memberTx) BulkDeleteMembers(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return m.tx.Model(&models.GuildMember{}).
		Where("guild_id = ? AND id IN ?", m.guildID, ids).
		Update("left_at", m.now).Error
}
