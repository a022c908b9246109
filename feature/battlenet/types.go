package battlenet

import "encoding/json"

// Ref is a keyed reference to another upstream resource.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// RealmRef identifies a realm.
type RealmRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	Slug string `json:"slug"`
}

// GuildRef identifies a guild from a character profile or roster.
type GuildRef struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Realm RealmRef `json:"realm"`
}

// TypedName is an enum-like value with a display name.
type TypedName struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// GuildMetadata is the guild summary document.
type GuildMetadata struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Faction           *TypedName `json:"faction,omitempty"`
	Realm             RealmRef   `json:"realm"`
	MemberCount       int        `json:"member_count"`
	AchievementPoints int        `json:"achievement_points"`
	CreatedTimestamp  int64      `json:"created_timestamp"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// RosterCharacter is the character summary embedded in a roster entry.
type RosterCharacter struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Realm         RealmRef `json:"realm"`
	Level         int      `json:"level"`
	PlayableClass Ref      `json:"playable_class"`
	PlayableRace  Ref      `json:"playable_race"`
}

// ClassName returns the display name of the character's class.
func (c RosterCharacter) ClassName() string {
	if c.PlayableClass.Name != "" {
		return c.PlayableClass.Name
	}
	return ClassName(c.PlayableClass.ID)
}

// RosterMember is one entry of a guild roster.
type RosterMember struct {
	Character RosterCharacter `json:"character"`
	Rank      int             `json:"rank"`
}

// RosterSnapshot is the full membership listing of a guild at one point in time.
type RosterSnapshot struct {
	Guild   GuildRef       `json:"guild"`
	Members []RosterMember `json:"members"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// Leader returns the rank 0 member, if any.
func (r *RosterSnapshot) Leader() (RosterMember, bool) {
	for _, m := range r.Members {
		if m.Rank == 0 {
			return m, true
		}
	}
	return RosterMember{}, false
}

// EnhancedCharacter combines a character profile with its sub-documents.
type EnhancedCharacter struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Level          int       `json:"level"`
	CharacterClass Ref       `json:"character_class"`
	Realm          RealmRef  `json:"realm"`
	Guild          *GuildRef `json:"guild,omitempty"`

	// Profile is the raw profile document.
	Profile json.RawMessage `json:"-"`
	// Equipment is the raw equipment document.
	Equipment json.RawMessage `json:"-"`
	// MythicKeystone is nil when the character has no keystone profile.
	MythicKeystone json.RawMessage `json:"-"`
	// Professions is the raw professions document.
	Professions json.RawMessage `json:"-"`
}

// ClassName returns the display name of the character's class.
func (c *EnhancedCharacter) ClassName() string {
	if c.CharacterClass.Name != "" {
		return c.CharacterClass.Name
	}
	return ClassName(c.CharacterClass.ID)
}

var classNames = map[int64]string{
	1:  "Warrior",
	2:  "Paladin",
	3:  "Hunter",
	4:  "Rogue",
	5:  "Priest",
	6:  "Death Knight",
	7:  "Shaman",
	8:  "Mage",
	9:  "Warlock",
	10: "Monk",
	11: "Druid",
	12: "Demon Hunter",
	13: "Evoker",
}

// ClassName maps a playable class id to its display name.
func ClassName(id int64) string {
	if name, ok := classNames[id]; ok {
		return name
	}
	return "Unknown"
}
