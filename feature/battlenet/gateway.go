package battlenet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// API is the raw upstream surface the gateway drives.
type API interface {
	GetGuild(ctx context.Context, token, region, realmSlug, guildSlug string) ([]byte, error)
	GetGuildRoster(ctx context.Context, token, region, realmSlug, guildSlug string) ([]byte, error)
	GetCharacter(ctx context.Context, token, region, realmSlug, name, resource string) ([]byte, error)
}

// TokenSource hands out valid bearer tokens.
type TokenSource interface {
	EnsureToken(ctx context.Context) (Token, error)
}

// Gateway runs every upstream read through the limiter with a single retry on throttling.
type Gateway struct {
	api         API
	tokens      TokenSource
	limiter     *Limiter
	clock       Clock
	retryBuffer time.Duration
	logger      *zap.Logger
}

// NewGateway creates a gateway. A nil clock uses SystemClock.
func NewGateway(api API, tokens TokenSource, limiter *Limiter, clock Clock, retryBuffer time.Duration, logger *zap.Logger) *Gateway {
	if clock == nil {
		clock = SystemClock
	}
	return &Gateway{
		api:         api,
		tokens:      tokens,
		limiter:     limiter,
		clock:       clock,
		retryBuffer: retryBuffer,
		logger:      logger,
	}
}

// Remaining returns the calls left in the limiter's current window, or -1 when unlimited.
func (g *Gateway) Remaining() int {
	return g.limiter.Remaining()
}

// FetchGuildMetadata returns the guild summary.
func (g *Gateway) FetchGuildMetadata(ctx context.Context, region, realmSlug, guildSlug string) (*GuildMetadata, error) {
	tok, err := g.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("guild:%s:%s:%s", region, realmSlug, guildSlug)
	body, err := g.fetch(ctx, name, func(ctx context.Context) ([]byte, error) {
		return g.api.GetGuild(ctx, tok.AccessToken, region, realmSlug, guildSlug)
	})
	if err != nil {
		return nil, guildError(name, err)
	}

	var meta GuildMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode guild %s: %w", name, err)
	}
	meta.Raw = body
	return &meta, nil
}

// FetchGuildRoster returns the guild's current membership listing.
func (g *Gateway) FetchGuildRoster(ctx context.Context, region, realmSlug, guildSlug string) (*RosterSnapshot, error) {
	tok, err := g.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("roster:%s:%s:%s", region, realmSlug, guildSlug)
	body, err := g.fetch(ctx, name, func(ctx context.Context) ([]byte, error) {
		return g.api.GetGuildRoster(ctx, tok.AccessToken, region, realmSlug, guildSlug)
	})
	if err != nil {
		return nil, guildError(name, err)
	}

	var roster RosterSnapshot
	if err := json.Unmarshal(body, &roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster %s: %w", name, err)
	}
	if roster.Members == nil {
		roster.Members = []RosterMember{}
	}
	roster.Raw = body
	return &roster, nil
}

// FetchEnhancedCharacter returns the profile with its sub-documents, or nil when
// the character does not exist upstream.
func (g *Gateway) FetchEnhancedCharacter(ctx context.Context, region, realmSlug, nameLower string) (*EnhancedCharacter, error) {
	tok, err := g.tokens.EnsureToken(ctx)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("character:%s:%s:%s", region, realmSlug, nameLower)
	get := func(ctx context.Context, resource string) ([]byte, error) {
		name := base
		if resource != ResourceProfile {
			name += ":" + resource
		}
		body, err := g.fetch(ctx, name, func(ctx context.Context) ([]byte, error) {
			return g.api.GetCharacter(ctx, tok.AccessToken, region, realmSlug, nameLower, resource)
		})
		if IsNotFound(err) {
			return nil, nil
		}
		return body, err
	}

	profile, err := get(ctx, ResourceProfile)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		g.logger.Debug("Character not found upstream", zap.String("job", base))
		return nil, nil
	}

	var char EnhancedCharacter
	if err := json.Unmarshal(profile, &char); err != nil {
		return nil, fmt.Errorf("failed to decode character %s: %w", base, err)
	}
	char.Profile = profile

	eg, subCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		char.Equipment, err = get(subCtx, ResourceEquipment)
		return err
	})
	eg.Go(func() error {
		var err error
		char.MythicKeystone, err = get(subCtx, ResourceMythicKeystone)
		return err
	})
	eg.Go(func() error {
		var err error
		char.Professions, err = get(subCtx, ResourceProfessions)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &char, nil
}

// fetch schedules call and retries it once after a throttle, at the next
// whole second plus the retry buffer.
func (g *Gateway) fetch(ctx context.Context, name string, call func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	var body []byte
	run := func(ctx context.Context) error {
		var err error
		body, err = call(ctx)
		return err
	}

	err := g.limiter.Schedule(ctx, name, run)
	if !IsThrottled(err) {
		return body, err
	}

	now := g.clock.Now()
	delay := now.Truncate(time.Second).Add(time.Second).Sub(now) + g.retryBuffer
	g.logger.Warn("Upstream throttled, retrying once",
		zap.String("job", name),
		zap.Duration("delay", delay),
	)
	if err := g.clock.Sleep(ctx, delay); err != nil {
		return nil, err
	}

	err = g.limiter.Schedule(ctx, name, run)
	var te *ThrottledError
	if errors.As(err, &te) {
		return nil, &UpstreamError{Status: te.Status, Op: name, Err: err}
	}
	return body, err
}

// guildError reports a guild-level not-found as an upstream failure.
func guildError(name string, err error) error {
	if IsNotFound(err) {
		return &UpstreamError{Status: http.StatusNotFound, Op: name, Err: err}
	}
	return err
}
