package models

import (
	"time"

	"gorm.io/datatypes"
)

// GuildUpdate is the set of guild columns written after a sync.
// A nil LeaderID clears the stored leader.
type GuildUpdate struct {
	BnetGuildID    int64
	GuildData      datatypes.JSON
	RosterData     datatypes.JSON
	MemberCount    int
	LeaderID       *uint
	LastUpdated    time.Time
	LastRosterSync time.Time
}

// Columns returns the update as a column map.
func (u GuildUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"bnet_guild_id":    u.BnetGuildID,
		"guild_data":       u.GuildData,
		"roster_data":      u.RosterData,
		"member_count":     u.MemberCount,
		"last_updated":     u.LastUpdated,
		"last_roster_sync": u.LastRosterSync,
		"leader_id":        nil,
	}
	if u.LeaderID != nil {
		cols["leader_id"] = *u.LeaderID
	}
	return cols
}

// CharacterUpdate is the set of character columns written after a profile sync.
// Nil pointers and a nil MythicKeystoneData are omitted.
type CharacterUpdate struct {
	ProfileData        datatypes.JSON
	EquipmentData      datatypes.JSON
	MythicKeystoneData datatypes.JSON
	ProfessionsData    datatypes.JSON
	Level              int
	Class              string
	BnetID             int64
	GuildID            *uint
	Region             *string
	LastSyncedAt       time.Time
}

// Columns returns the update as a column map.
func (u CharacterUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"profile_data":     u.ProfileData,
		"equipment_data":   u.EquipmentData,
		"professions_data": u.ProfessionsData,
		"level":            u.Level,
		"class":            u.Class,
		"bnet_id":          u.BnetID,
		"last_synced_at":   u.LastSyncedAt,
	}
	if u.MythicKeystoneData != nil {
		cols["mythic_keystone_data"] = u.MythicKeystoneData
	}
	if u.GuildID != nil {
		cols["guild_id"] = *u.GuildID
	}
	if u.Region != nil {
		cols["region"] = *u.Region
	}
	return cols
}

// NewCharacter is a character seen in a roster but not stored yet.
type NewCharacter struct {
	Name   string
	Realm  string
	Region string
	Class  string
	Level  int
	Role   string
	IsMain bool
}

// Model converts the record into a Character row.
func (n NewCharacter) Model() Character {
	return Character{
		Name:   n.Name,
		Realm:  n.Realm,
		Region: n.Region,
		Class:  n.Class,
		Level:  n.Level,
		Role:   n.Role,
		IsMain: n.IsMain,
	}
}

// MemberUpdate changes one existing membership row. A nil Rank keeps the stored rank.
type MemberUpdate struct {
	ID         uint
	Rank       *int
	MemberData datatypes.JSON
}

// MemberView is a current membership row joined with its character.
type MemberView struct {
	ID          uint    `gorm:"column:id"`
	GuildID     uint    `gorm:"column:guild_id"`
	CharacterID uint    `gorm:"column:character_id"`
	Rank        int     `gorm:"column:member_rank"`
	Name        string  `gorm:"column:name"`
	Realm       string  `gorm:"column:realm"`
	Class       string  `gorm:"column:class"`
	Level       int     `gorm:"column:level"`
	UserID      *uint   `gorm:"column:user_id"`
	ToyHash     *string `gorm:"column:toy_hash"`
	// IsMain is the character's account-wide main flag.
	IsMain bool `gorm:"column:is_main"`
}

// Key returns the case-normalised identity of the member's character.
func (m MemberView) Key() CharacterKey {
	return NewCharacterKey(m.Name, m.Realm)
}
