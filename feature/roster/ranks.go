package roster

import (
	"context"
	"fmt"
	"sort"

	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild/models"

	"go.uber.org/zap"
)

// RankStore persists guild ranks.
type RankStore interface {
	GetGuildRanks(ctx context.Context, guildID uint) ([]models.GuildRank, error)
	UpsertGuildRank(ctx context.Context, guildID uint, rankID int, name string) (models.GuildRank, error)
	SetRankMemberCount(ctx context.Context, guildID uint, rankID, count int) error
}

// RankResult reports what a rank reconciliation changed.
type RankResult struct {
	Created []int
	Counted []int
	Failed  []int
}

// DefaultRankName is the name given to a rank the first time it is seen.
func DefaultRankName(rankID int) string {
	if rankID == 0 {
		return "Guild Master"
	}
	return fmt.Sprintf("Rank %d", rankID)
}

// ReconcileRanks creates missing rank rows and refreshes member counts.
// Failures on one rank are logged and do not stop the others; only the initial
// read is fatal.
func ReconcileRanks(ctx context.Context, store RankStore, guildID uint, members []battlenet.RosterMember, logger *zap.Logger) (RankResult, error) {
	result := RankResult{Created: []int{}, Counted: []int{}, Failed: []int{}}

	existing, err := store.GetGuildRanks(ctx, guildID)
	if err != nil {
		return result, fmt.Errorf("failed to load ranks for guild %d: %w", guildID, err)
	}

	rows := make(map[int]models.GuildRank, len(existing))
	for _, r := range existing {
		rows[r.RankID] = r
	}

	counts := make(map[int]int)
	for _, m := range members {
		counts[m.Rank]++
	}
	ranks := make([]int, 0, len(counts))
	for r := range counts {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	for _, rankID := range ranks {
		if _, ok := rows[rankID]; ok {
			continue
		}
		row, err := store.UpsertGuildRank(ctx, guildID, rankID, DefaultRankName(rankID))
		if err != nil {
			logger.Error("Failed to create guild rank",
				zap.Uint("guild_id", guildID),
				zap.Int("rank", rankID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, rankID)
			continue
		}
		rows[rankID] = row
		result.Created = append(result.Created, rankID)
	}

	for _, rankID := range ranks {
		row, ok := rows[rankID]
		if !ok {
			continue
		}
		if row.MemberCount == counts[rankID] {
			continue
		}
		if err := store.SetRankMemberCount(ctx, guildID, rankID, counts[rankID]); err != nil {
			logger.Error("Failed to update rank member count",
				zap.Uint("guild_id", guildID),
				zap.Int("rank", rankID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, rankID)
			continue
		}
		result.Counted = append(result.Counted, rankID)
	}

	return result, nil
}
