package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Guild is a tracked guild and its cached upstream snapshots.
type Guild struct {
	ID             uint           `gorm:"column:id;primaryKey"`
	Name           string         `gorm:"column:name;type:varchar(100);not null;uniqueIndex:idx_guild_identity"`
	Realm          string         `gorm:"column:realm;type:varchar(100);not null;uniqueIndex:idx_guild_identity"`
	Region         string         `gorm:"column:region;type:varchar(8);not null;uniqueIndex:idx_guild_identity"`
	LeaderID       *uint          `gorm:"column:leader_id"`
	BnetGuildID    *int64         `gorm:"column:bnet_guild_id;uniqueIndex"`
	MemberCount    int            `gorm:"column:member_count;default:0"`
	GuildData      datatypes.JSON `gorm:"column:guild_data"`
	RosterData     datatypes.JSON `gorm:"column:roster_data"`
	LastUpdated    *time.Time     `gorm:"column:last_updated;index"`
	LastRosterSync *time.Time     `gorm:"column:last_roster_sync"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (Guild) TableName() string {
	return "guilds"
}

// Character is a game character, optionally owned by a User.
// Realm holds the realm slug. An empty Region means the region is unknown.
type Character struct {
	ID                 uint           `gorm:"column:id;primaryKey"`
	Name               string         `gorm:"column:name;type:varchar(64);not null"`
	Realm              string         `gorm:"column:realm;type:varchar(100);not null"`
	NameKey            string         `gorm:"column:name_key;type:varchar(64);index:idx_character_key"`
	RealmKey           string         `gorm:"column:realm_key;type:varchar(100);index:idx_character_key"`
	Region             string         `gorm:"column:region;type:varchar(8)"`
	UserID             *uint          `gorm:"column:user_id;index"`
	Class              string         `gorm:"column:class;type:varchar(32)"`
	Level              int            `gorm:"column:level;default:0"`
	Role               string         `gorm:"column:role;type:varchar(16)"`
	IsMain             bool           `gorm:"column:is_main;default:false"`
	GuildID            *uint          `gorm:"column:guild_id;index"`
	ToyHash            *string        `gorm:"column:toy_hash;type:varchar(128);index"`
	BnetID             *int64         `gorm:"column:bnet_id"`
	ProfileData        datatypes.JSON `gorm:"column:profile_data"`
	EquipmentData      datatypes.JSON `gorm:"column:equipment_data"`
	MythicKeystoneData datatypes.JSON `gorm:"column:mythic_keystone_data"`
	ProfessionsData    datatypes.JSON `gorm:"column:professions_data"`
	LastSyncedAt       *time.Time     `gorm:"column:last_synced_at;index"`
	CreatedAt          time.Time      `gorm:"column:created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at"`
}

func (Character) TableName() string {
	return "characters"
}

// Key returns the case-normalised identity of the character.
func (c Character) Key() CharacterKey {
	return NewCharacterKey(c.Name, c.Realm)
}

// BeforeSave keeps the lookup columns in step with Name and Realm.
// Case folding happens here rather than in SQL, where LOWER is ASCII-only on SQLite.
func (c *Character) BeforeSave(*gorm.DB) error {
	key := c.Key()
	c.NameKey, c.RealmKey = key.Name, key.Realm
	return nil
}

// GuildMember joins a Guild and a Character. LeftAt is set when the character departs.
// Rank is stored as member_rank because RANK is reserved in MySQL 8.
type GuildMember struct {
	ID          uint           `gorm:"column:id;primaryKey"`
	GuildID     uint           `gorm:"column:guild_id;not null;uniqueIndex:idx_guild_member"`
	CharacterID uint           `gorm:"column:character_id;not null;uniqueIndex:idx_guild_member"`
	Rank        int            `gorm:"column:member_rank;not null"`
	IsMain      bool           `gorm:"column:is_main;default:false"`
	MemberData  datatypes.JSON `gorm:"column:member_data"`
	JoinedAt    time.Time      `gorm:"column:joined_at"`
	LeftAt      *time.Time     `gorm:"column:left_at;index"`
	Character   Character      `gorm:"foreignKey:CharacterID"`
}

func (GuildMember) TableName() string {
	return "guild_members"
}

// GuildRank names a rank slot of a guild and caches how many members hold it.
type GuildRank struct {
	ID          uint   `gorm:"column:id;primaryKey"`
	GuildID     uint   `gorm:"column:guild_id;not null;uniqueIndex:idx_guild_rank"`
	RankID      int    `gorm:"column:rank_id;not null;uniqueIndex:idx_guild_rank"`
	RankName    string `gorm:"column:rank_name;type:varchar(64)"`
	MemberCount int    `gorm:"column:member_count;default:0"`
}

func (GuildRank) TableName() string {
	return "guild_ranks"
}

// User is an account that owns characters.
type User struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	Username  string    `gorm:"column:username;type:varchar(64);uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (User) TableName() string {
	return "users"
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Guild{},
		&Character{},
		&GuildMember{},
		&GuildRank{},
	}
}
