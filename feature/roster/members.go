package roster

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"guild-sync/core/reconcile"
	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild/models"

	"gorm.io/datatypes"
)

// ErrInvariantViolation means a plan placed one character in more than one output.
var ErrInvariantViolation = errors.New("roster: reconciliation invariant violated")

// PendingCharacter is a roster entry with no local character yet.
type PendingCharacter struct {
	Key       models.CharacterKey
	Entry     battlenet.RosterMember
	Character models.NewCharacter
}

// MemberAdd is a roster entry whose character exists locally but is not a current member.
type MemberAdd struct {
	Key         models.CharacterKey
	Entry       battlenet.RosterMember
	CharacterID uint
}

// Row converts the addition into a membership row for guildID.
func (a MemberAdd) Row(guildID uint, joinedAt time.Time) models.GuildMember {
	return models.GuildMember{
		GuildID:     guildID,
		CharacterID: a.CharacterID,
		Rank:        a.Entry.Rank,
		MemberData:  snapshot(a.Entry),
		JoinedAt:    joinedAt,
	}
}

// MemberChange refreshes a current member. Update.Rank is set only when the rank moved.
type MemberChange struct {
	Key    models.CharacterKey
	Update models.MemberUpdate
}

// MemberRemoval is a current member missing from the roster.
type MemberRemoval struct {
	Key models.CharacterKey
	ID  uint
}

// Plan is the set of writes that brings a guild's membership in line with its roster.
type Plan struct {
	GuildID            uint
	CharactersToCreate []PendingCharacter
	MembersToAdd       []MemberAdd
	MembersToUpdate    []MemberChange
	MembersToRemove    []MemberRemoval

	// Diff counts roster keys against current member keys.
	Diff reconcile.Summary
}

// MemberIDsToRemove returns the ids of the rows to remove.
func (p Plan) MemberIDsToRemove() []uint {
	ids := make([]uint, 0, len(p.MembersToRemove))
	for _, r := range p.MembersToRemove {
		ids = append(ids, r.ID)
	}
	return ids
}

// Rows returns the membership rows to insert for MembersToAdd.
func (p Plan) Rows(joinedAt time.Time) []models.GuildMember {
	rows := make([]models.GuildMember, 0, len(p.MembersToAdd))
	for _, a := range p.MembersToAdd {
		rows = append(rows, a.Row(p.GuildID, joinedAt))
	}
	return rows
}

// Updates returns the row updates in plan order.
func (p Plan) Updates() []models.MemberUpdate {
	out := make([]models.MemberUpdate, 0, len(p.MembersToUpdate))
	for _, c := range p.MembersToUpdate {
		out = append(out, c.Update)
	}
	return out
}

// RankChanges counts updates that move a member to a new rank.
func (p Plan) RankChanges() int {
	n := 0
	for _, c := range p.MembersToUpdate {
		if c.Update.Rank != nil {
			n++
		}
	}
	return n
}

// Empty reports whether the plan creates, adds or removes nothing.
func (p Plan) Empty() bool {
	return len(p.CharactersToCreate) == 0 && len(p.MembersToAdd) == 0 && len(p.MembersToRemove) == 0
}

// AddCreated moves pending characters whose ids are now known into MembersToAdd.
// Characters missing from created stay pending.
func (p *Plan) AddCreated(created map[models.CharacterKey]uint) {
	pending := make([]PendingCharacter, 0, len(p.CharactersToCreate))
	for _, pc := range p.CharactersToCreate {
		id, ok := created[pc.Key]
		if !ok {
			pending = append(pending, pc)
			continue
		}
		p.MembersToAdd = append(p.MembersToAdd, MemberAdd{Key: pc.Key, Entry: pc.Entry, CharacterID: id})
	}
	p.CharactersToCreate = pending
}

// Validate checks that no character key appears in two outputs.
func (p Plan) Validate() error {
	create := make([]models.CharacterKey, 0, len(p.CharactersToCreate))
	for _, c := range p.CharactersToCreate {
		create = append(create, c.Key)
	}
	add := make([]models.CharacterKey, 0, len(p.MembersToAdd))
	for _, a := range p.MembersToAdd {
		add = append(add, a.Key)
	}
	update := make([]models.CharacterKey, 0, len(p.MembersToUpdate))
	for _, u := range p.MembersToUpdate {
		update = append(update, u.Key)
	}
	remove := make([]models.CharacterKey, 0, len(p.MembersToRemove))
	for _, r := range p.MembersToRemove {
		remove = append(remove, r.Key)
	}

	if k, ok := reconcile.FirstOverlap(create, add, update, remove); ok {
		return fmt.Errorf("%w: %s", ErrInvariantViolation, k)
	}
	return nil
}

// ReconcileMembers diffs roster against the guild's current members.
// known maps character keys to local character ids. The result depends only on
// the inputs; duplicate keys on either side keep their first occurrence.
func ReconcileMembers(guildID uint, region string, roster []battlenet.RosterMember, current []models.MemberView, known map[models.CharacterKey]uint) Plan {
	entryKey := func(m battlenet.RosterMember) models.CharacterKey {
		return models.NewCharacterKey(m.Character.Name, m.Character.Realm.Slug)
	}
	memberKey := func(m models.MemberView) models.CharacterKey {
		return m.Key()
	}

	entries, _ := reconcile.Index(roster, entryKey)
	members, _ := reconcile.Index(current, memberKey)
	diff := reconcile.Diff(roster, entryKey, current, memberKey)

	plan := Plan{
		GuildID:            guildID,
		CharactersToCreate: []PendingCharacter{},
		MembersToAdd:       []MemberAdd{},
		MembersToUpdate:    []MemberChange{},
		MembersToRemove:    []MemberRemoval{},
		Diff:               diff.Summary(),
	}

	for _, k := range diff.OnlyRemote {
		entry := entries[k]
		if id, ok := known[k]; ok {
			plan.MembersToAdd = append(plan.MembersToAdd, MemberAdd{Key: k, Entry: entry, CharacterID: id})
			continue
		}
		plan.CharactersToCreate = append(plan.CharactersToCreate, PendingCharacter{
			Key:       k,
			Entry:     entry,
			Character: newCharacter(region, entry),
		})
	}

	for _, k := range diff.Both {
		entry := entries[k]
		member := members[k]
		update := models.MemberUpdate{ID: member.ID, MemberData: snapshot(entry)}
		if member.Rank != entry.Rank {
			rank := entry.Rank
			update.Rank = &rank
		}
		plan.MembersToUpdate = append(plan.MembersToUpdate, MemberChange{Key: k, Update: update})
	}

	for _, k := range diff.OnlyLocal {
		plan.MembersToRemove = append(plan.MembersToRemove, MemberRemoval{Key: k, ID: members[k].ID})
	}

	return plan
}

func newCharacter(region string, entry battlenet.RosterMember) models.NewCharacter {
	class := entry.Character.ClassName()
	return models.NewCharacter{
		Name:   entry.Character.Name,
		Realm:  entry.Character.Realm.Slug,
		Region: region,
		Class:  class,
		Level:  entry.Character.Level,
		Role:   GuessRole(class),
		IsMain: false,
	}
}

func snapshot(entry battlenet.RosterMember) datatypes.JSON {
	b, err := json.Marshal(entry)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}
