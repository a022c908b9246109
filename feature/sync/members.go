package sync

import (
	"context"
	"fmt"
	"time"

	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild"
	"guild-sync/feature/guild/models"
	"guild-sync/feature/roster"

	"go.uber.org/zap"
)

// MemberStore is the persistence surface used to rewrite a guild's membership.
type MemberStore interface {
	GetCurrentMembers(ctx context.Context, guildID uint) ([]models.MemberView, error)
	FindCharactersByNameRealmPairs(ctx context.Context, keys []models.CharacterKey) (map[models.CharacterKey]uint, error)
	CreateCharacter(ctx context.Context, c models.NewCharacter) (uint, error)
	WithMemberTx(ctx context.Context, guildID uint, fn func(tx guild.MemberTx) error) error
}

// SyncGuildMembersTable brings the guild's membership rows in line with snapshot.
// Missing characters are created first; the membership writes then happen in one
// transaction. A character that fails to be created is logged and left out.
func SyncGuildMembersTable(ctx context.Context, store MemberStore, g models.Guild, snapshot *battlenet.RosterSnapshot, now time.Time, logger *zap.Logger) (roster.Plan, error) {
	current, err := store.GetCurrentMembers(ctx, g.ID)
	if err != nil {
		return roster.Plan{}, err
	}

	keys := make([]models.CharacterKey, 0, len(snapshot.Members))
	for _, m := range snapshot.Members {
		keys = append(keys, models.NewCharacterKey(m.Character.Name, m.Character.Realm.Slug))
	}
	known, err := store.FindCharactersByNameRealmPairs(ctx, keys)
	if err != nil {
		return roster.Plan{}, err
	}

	plan := roster.ReconcileMembers(g.ID, g.Region, snapshot.Members, current, known)

	created := make(map[models.CharacterKey]uint, len(plan.CharactersToCreate))
	for _, pc := range plan.CharactersToCreate {
		id, err := store.CreateCharacter(ctx, pc.Character)
		if err != nil {
			logger.Error("Failed to create character",
				zap.String("character", pc.Character.Name),
				zap.String("realm", pc.Character.Realm),
				zap.Error(err),
			)
			continue
		}
		created[pc.Key] = id
	}
	plan.AddCreated(created)

	if err := plan.Validate(); err != nil {
		return plan, err
	}

	if plan.Empty() && len(plan.MembersToUpdate) == 0 {
		logger.Debug("Guild has no members to write")
		return plan, nil
	}

	err = store.WithMemberTx(ctx, g.ID, func(tx guild.MemberTx) error {
		if err := tx.BulkCreateMembers(plan.Rows(now)); err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		if err := tx.BulkUpdateMembers(plan.Updates()); err != nil {
			return fmt.Errorf("update members: %w", err)
		}
		if err := tx.BulkDeleteMembers(plan.MemberIDsToRemove()); err != nil {
			return fmt.Errorf("remove members: %w", err)
		}
		return nil
	})
	if err != nil {
		return plan, err
	}

	logger.Info("Guild members synced",
		zap.Int("roster", plan.Diff.OnlyRemote+plan.Diff.Both),
		zap.Int("created_characters", len(created)),
		zap.Int("added", len(plan.MembersToAdd)),
		zap.Int("updated", len(plan.MembersToUpdate)),
		zap.Int("rank_changes", plan.RankChanges()),
		zap.Int("removed", len(plan.MembersToRemove)),
		zap.Int("not_created", len(plan.CharactersToCreate)),
	)

	return plan, nil
}
