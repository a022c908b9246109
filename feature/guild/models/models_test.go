package models_test

import (
	"testing"
	"time"

	"guild-sync/feature/guild/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestCharacterKey(t *testing.T) {
	assert.Equal(t, models.NewCharacterKey("thrall", "area-52"), models.NewCharacterKey(" Thrall ", "Area-52"))
	assert.NotEqual(t, models.NewCharacterKey("Thrall", "area-52"), models.NewCharacterKey("Thrall", "area-53"))
	assert.Equal(t, "thrall@area-52", models.NewCharacterKey("Thrall", "Area-52").String())

	c := models.Character{Name: "Jaina", Realm: "Proudmoore"}
	assert.Equal(t, models.CharacterKey{Name: "jaina", Realm: "proudmoore"}, c.Key())
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "stormwind-watch", models.Slug("Stormwind Watch"))
	assert.Equal(t, "kelthuzad", models.Slug("Kel'Thuzad"))
	assert.Equal(t, "area-52", models.Slug("  Area   52 "))
}

func TestGuildUpdateColumns(t *testing.T) {
	now := time.Now().UTC()
	u := models.GuildUpdate{BnetGuildID: 7, MemberCount: 3, LastUpdated: now, LastRosterSync: now}

	cols := u.Columns()
	assert.Contains(t, cols, "leader_id")
	assert.Nil(t, cols["leader_id"])
	assert.Equal(t, 3, cols["member_count"])

	leader := uint(9)
	u.LeaderID = &leader
	assert.Equal(t, uint(9), u.Columns()["leader_id"])
}

func TestCharacterUpdateColumns(t *testing.T) {
	u := models.CharacterUpdate{ProfileData: datatypes.JSON(`{}`), Level: 70, Class: "Mage"}

	cols := u.Columns()
	assert.NotContains(t, cols, "mythic_keystone_data")
	assert.NotContains(t, cols, "guild_id")
	assert.NotContains(t, cols, "region")

	gid := uint(4)
	region := "eu"
	u.GuildID = &gid
	u.Region = &region
	u.MythicKeystoneData = datatypes.JSON(`{"current_period":{}}`)
	cols = u.Columns()
	assert.Equal(t, uint(4), cols["guild_id"])
	assert.Equal(t, "eu", cols["region"])
	assert.Contains(t, cols, "mythic_keystone_data")
}
