package guild

import (
	"context"
	"errors"

	"guild-sync/feature/guild/models"
	"guild-sync/feature/roster"

	"go.uber.org/zap"
)

// ErrGuildNotFound is returned when the requested guild is not tracked.
var ErrGuildNotFound = errors.New("guild not found")

// MemberStore is the persistence surface the classification service needs.
type MemberStore interface {
	GetGuild(ctx context.Context, id uint) (*models.Guild, error)
	GetCurrentMembers(ctx context.Context, guildID uint) ([]models.MemberView, error)
	SetMainFlags(ctx context.Context, guildID uint, mains, alts []uint) error
}

// ClassifiedMember is one member of a classification report.
type ClassifiedMember struct {
	CharacterID     uint    `json:"character_id"`
	Name            string  `json:"name"`
	Realm           string  `json:"realm"`
	Rank            int     `json:"rank"`
	Classification  string  `json:"classification"`
	GroupKey        *string `json:"group_key"`
	MainCharacterID *uint   `json:"main_character_id"`
}

// ClassificationReport is the result of classifying a guild's members.
type ClassificationReport struct {
	GuildID   uint               `json:"guild_id"`
	Guild     string             `json:"guild"`
	Mains     int                `json:"mains"`
	Alts      int                `json:"alts"`
	Persisted bool               `json:"persisted"`
	Members   []ClassifiedMember `json:"members"`
}

// Service classifies guild members into mains and alts.
type Service struct {
	store  MemberStore
	logger *zap.Logger
}

// NewService creates a new classification service.
func NewService(store MemberStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ClassifyGuild classifies the guild's current members. With persist set the
// guild-scoped main flags are written in one transaction.
func (s *Service) ClassifyGuild(ctx context.Context, guildID uint, persist bool) (*ClassificationReport, error) {
	g, err := s.store.GetGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGuildNotFound
	}

	members, err := s.store.GetCurrentMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	results := roster.Classify(members)
	report := &ClassificationReport{
		GuildID: guildID,
		Guild:   g.Name,
		Members: make([]ClassifiedMember, 0, len(results)),
	}
	report.Mains, report.Alts = roster.Counts(results)

	var mains, alts []uint
	for _, r := range results {
		report.Members = append(report.Members, ClassifiedMember{
			CharacterID:     r.Member.CharacterID,
			Name:            r.Member.Name,
			Realm:           r.Member.Realm,
			Rank:            r.Member.Rank,
			Classification:  string(r.Classification),
			GroupKey:        r.GroupKey,
			MainCharacterID: r.MainCharacterID,
		})
		if r.Classification == roster.Main {
			mains = append(mains, r.Member.CharacterID)
		} else {
			alts = append(alts, r.Member.CharacterID)
		}
	}

	if persist {
		if err := s.store.SetMainFlags(ctx, guildID, mains, alts); err != nil {
			return nil, err
		}
		report.Persisted = true
	}

	s.logger.Info("Guild classified",
		zap.Uint("guild_id", guildID),
		zap.String("guild", g.Name),
		zap.Int("mains", report.Mains),
		zap.Int("alts", report.Alts),
		zap.Bool("persisted", persist),
	)

	return report, nil
}
