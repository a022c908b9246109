package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"sync/atomic"
	"time"

	"guild-sync/core/lock"
	"guild-sync/core/logger"
	"guild-sync/feature/battlenet"
	"guild-sync/feature/guild/models"
	"guild-sync/feature/roster"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrSyncInProgress is returned when a run is requested while another is active.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrNotFound is returned when a single-item sync names an unknown row.
	ErrNotFound = errors.New("not found")
)

// State is the run state of the orchestrator.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Outcome is the result of syncing one guild or character.
type Outcome string

const (
	Synced  Outcome = "synced"
	Skipped Outcome = "skipped"
	Failed  Outcome = "failed"
)

// StageError reports the step at which an item sync stopped.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Gateway is the upstream read surface.
type Gateway interface {
	FetchGuildMetadata(ctx context.Context, region, realmSlug, guildSlug string) (*battlenet.GuildMetadata, error)
	FetchGuildRoster(ctx context.Context, region, realmSlug, guildSlug string) (*battlenet.RosterSnapshot, error)
	FetchEnhancedCharacter(ctx context.Context, region, realmSlug, nameLower string) (*battlenet.EnhancedCharacter, error)
}

// Store is the persistence surface of a sync.
type Store interface {
	MemberStore
	LeaderLookup
	GuildLookup
	roster.RankStore
	FindStaleGuilds(ctx context.Context, cutoff time.Time, limit int) ([]models.Guild, error)
	FindStaleCharacters(ctx context.Context, cutoff time.Time, limit int) ([]models.Character, error)
	GetGuild(ctx context.Context, id uint) (*models.Guild, error)
	GetCharacter(ctx context.Context, id uint) (*models.Character, error)
	UpdateGuild(ctx context.Context, id uint, update models.GuildUpdate) error
	UpdateCharacter(ctx context.Context, id uint, update models.CharacterUpdate) error
}

// Counts tallies item outcomes.
type Counts struct {
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (c *Counts) add(o Outcome) {
	switch o {
	case Synced:
		c.Synced++
	case Skipped:
		c.Skipped++
	default:
		c.Failed++
	}
}

// Status describes the current or last run.
type Status struct {
	State      string     `json:"state"`
	RunID      string     `json:"run_id,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Guilds     Counts     `json:"guilds"`
	Characters Counts     `json:"characters"`

	// QuotaRemaining is the upstream call budget left in the current window; -1 is unlimited.
	QuotaRemaining *int `json:"quota_remaining,omitempty"`
	// SlowTransactions counts transactions held past the slow threshold since start.
	SlowTransactions *int64 `json:"slow_transactions,omitempty"`
}

// quotaReporter is implemented by gateways that track their call budget.
type quotaReporter interface {
	Remaining() int
}

// slowTxReporter is implemented by stores that time their transactions.
type slowTxReporter interface {
	SlowTransactions() int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLocker guards every run with a cross-process lock.
func WithLocker(l lock.Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// WithArchive stores every fetched roster before it is applied.
func WithArchive(a *Archive) Option {
	return func(o *Orchestrator) { o.archive = a }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// Orchestrator selects stale guilds and characters and syncs them one by one.
// A failure on one item never stops the run.
type Orchestrator struct {
	gateway Gateway
	store   Store
	cfg     Config
	logger  *zap.Logger
	locker  lock.Locker
	archive *Archive
	now     func() time.Time

	state atomic.Int32

	mu     gosync.Mutex
	status Status
}

// New creates an orchestrator.
func New(gateway Gateway, store Store, cfg Config, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway: gateway,
		store:   store,
		cfg:     cfg,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Status returns a copy of the current or last run's status.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.status
	s.State = o.State().String()
	if q, ok := o.gateway.(quotaReporter); ok {
		n := q.Remaining()
		s.QuotaRemaining = &n
	}
	if r, ok := o.store.(slowTxReporter); ok {
		n := r.SlowTransactions()
		s.SlowTransactions = &n
	}
	return s
}

// RunSync syncs every stale guild, then every stale character.
// It returns ErrSyncInProgress without doing anything when a run is active.
func (o *Orchestrator) RunSync(ctx context.Context) error {
	if !o.state.CompareAndSwap(int32(Idle), int32(Running)) {
		o.logger.Warn("Sync requested while a run is in progress")
		return ErrSyncInProgress
	}
	defer o.state.Store(int32(Idle))

	if o.locker != nil {
		ok, err := o.locker.TryAcquire(ctx)
		if err != nil {
			o.logger.Error("Failed to acquire run lock", zap.Error(err))
			return err
		}
		if !ok {
			o.logger.Warn("Sync run lock held by another process")
			return ErrSyncInProgress
		}
		defer func() {
			if err := o.locker.Release(context.Background()); err != nil {
				o.logger.Warn("Failed to release run lock", zap.Error(err))
			}
		}()
	}

	runID := uuid.NewString()
	l := logger.WithRun(o.logger, runID)
	start := o.now()
	o.beginRun(runID, start)
	defer o.finishRun()

	cutoff := start.Add(-o.cfg.StaleAfter())

	guilds, err := o.store.FindStaleGuilds(ctx, cutoff, o.cfg.GuildBatchSize)
	if err != nil {
		l.Error("Failed to select stale guilds", zap.Error(err))
		return err
	}
	l.Info("Sync started", zap.Int("guilds", len(guilds)), zap.Time("cutoff", cutoff))

	o.forEach(len(guilds), func(i int) {
		outcome := o.guard(l, "guild", []zap.Field{zap.Uint("guild_id", guilds[i].ID), zap.String("guild", guilds[i].Name)}, func() Outcome {
			if err := o.SyncGuild(ctx, guilds[i]); err != nil {
				return Failed
			}
			return Synced
		})
		o.record(func(s *Status) { s.Guilds.add(outcome) })
	})

	chars, err := o.store.FindStaleCharacters(ctx, cutoff, o.cfg.CharacterBatchSize)
	if err != nil {
		l.Error("Failed to select stale characters", zap.Error(err))
		return err
	}
	l.Info("Syncing characters", zap.Int("characters", len(chars)))

	o.forEach(len(chars), func(i int) {
		outcome := o.guard(l, "character", []zap.Field{zap.Uint("character_id", chars[i].ID), zap.String("character", chars[i].Name)}, func() Outcome {
			outcome, _ := o.SyncCharacter(ctx, chars[i])
			return outcome
		})
		o.record(func(s *Status) { s.Characters.add(outcome) })
	})

	st := o.Status()
	l.Info("Sync finished",
		zap.Duration("took", o.now().Sub(start)),
		zap.Any("guilds", st.Guilds),
		zap.Any("characters", st.Characters),
	)
	return nil
}

// SyncGuild fetches one guild and applies it: core fields, membership, then ranks.
// Every failure is logged with the stage it happened in.
func (o *Orchestrator) SyncGuild(ctx context.Context, g models.Guild) error {
	l := o.logger.With(zap.Uint("guild_id", g.ID), zap.String("guild", g.Name))
	realm, slug := models.Slug(g.Realm), models.Slug(g.Name)

	var (
		meta     *battlenet.GuildMetadata
		snapshot *battlenet.RosterSnapshot
	)
	eg, fetchCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		meta, err = o.gateway.FetchGuildMetadata(fetchCtx, g.Region, realm, slug)
		return err
	})
	eg.Go(func() error {
		var err error
		snapshot, err = o.gateway.FetchGuildRoster(fetchCtx, g.Region, realm, slug)
		return err
	})
	if err := eg.Wait(); err != nil {
		return o.stageFailed(l, "fetch", err)
	}

	now := o.now()

	if o.archive != nil {
		if key, err := o.archive.Store(ctx, g, snapshot, now); err != nil {
			l.Warn("Failed to archive roster", zap.Error(err))
		} else {
			l.Debug("Roster archived", zap.String("key", key))
		}
	}

	update := BuildGuildUpdate(ctx, o.store, meta, snapshot, now, l)
	if err := o.store.UpdateGuild(ctx, g.ID, update); err != nil {
		return o.stageFailed(l, "update_guild", err)
	}

	var errs []error
	if _, err := SyncGuildMembersTable(ctx, o.store, g, snapshot, now, l); err != nil {
		errs = append(errs, o.stageFailed(l, "members", err))
	}
	if _, err := roster.ReconcileRanks(ctx, o.store, g.ID, snapshot.Members, l); err != nil {
		errs = append(errs, o.stageFailed(l, "ranks", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	l.Info("Guild synced", zap.Int("members", len(snapshot.Members)))
	return nil
}

// SyncCharacter fetches one character's profile and stores it.
// Characters without a region or missing upstream are skipped.
func (o *Orchestrator) SyncCharacter(ctx context.Context, c models.Character) (Outcome, error) {
	l := o.logger.With(zap.Uint("character_id", c.ID), zap.String("character", c.Name))

	if c.Region == "" {
		l.Warn("Character has no region, skipping")
		return Skipped, nil
	}

	data, err := o.gateway.FetchEnhancedCharacter(ctx, c.Region, models.Slug(c.Realm), strings.ToLower(c.Name))
	if err != nil {
		return Failed, o.stageFailed(l, "fetch", err)
	}
	if data == nil {
		l.Info("Character not found upstream, skipping")
		return Skipped, nil
	}

	update := BuildCharacterUpdate(ctx, o.store, data, o.now(), l)
	if err := o.store.UpdateCharacter(ctx, c.ID, update); err != nil {
		return Failed, o.stageFailed(l, "update_character", err)
	}

	l.Debug("Character synced", zap.Int("level", data.Level))
	return Synced, nil
}

// SyncGuildByID syncs a single guild regardless of staleness.
func (o *Orchestrator) SyncGuildByID(ctx context.Context, id uint) error {
	g, err := o.store.GetGuild(ctx, id)
	if err != nil {
		return err
	}
	if g == nil {
		return fmt.Errorf("guild %d: %w", id, ErrNotFound)
	}
	return o.SyncGuild(ctx, *g)
}

// SyncCharacterByID syncs a single character regardless of staleness.
func (o *Orchestrator) SyncCharacterByID(ctx context.Context, id uint) (Outcome, error) {
	c, err := o.store.GetCharacter(ctx, id)
	if err != nil {
		return Failed, err
	}
	if c == nil {
		return Failed, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	return o.SyncCharacter(ctx, *c)
}

func (o *Orchestrator) stageFailed(l *zap.Logger, stage string, err error) error {
	l.Error("Sync step failed", zap.String("stage", stage), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}

// guard runs fn and turns a panic into a Failed outcome.
func (o *Orchestrator) guard(l *zap.Logger, kind string, fields []zap.Field, fn func() Outcome) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			l.Error("Recovered from panic during sync",
				append(fields, zap.String("kind", kind), zap.Any("panic", r))...,
			)
			outcome = Failed
		}
	}()
	return fn()
}

// forEach calls fn for 0..n-1 on at most cfg.Workers goroutines.
func (o *Orchestrator) forEach(n int, fn func(i int)) {
	workers := o.cfg.Workers
	if workers <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		eg.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = eg.Wait()
}

func (o *Orchestrator) beginRun(runID string, start time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = Status{RunID: runID, StartedAt: &start}
}

func (o *Orchestrator) finishRun() {
	end := o.now()
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.FinishedAt = &end
}

func (o *Orchestrator) record(fn func(s *Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fn(&o.status)
}
