package engagement

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/clock"
	"github.com/habitloop/habitloop/internal/domain"
	"github.com/habitloop/habitloop/internal/infra/metrics"
)

// recentActivityDays is the width of the activity strip in Summary.
const recentActivityDays = 14

// Options configures an Engine.
type Options struct {
	Store    domain.StateStore
	Notifier domain.Notifier    // reminders and nudges; nil records nothing
	Clock    clock.Clock        // defaults to clock.Real()
	Random   Random             // defaults to a time-seeded source
	Catalog  []domain.Challenge // defaults to DefaultChallenges()
	Logger   *zap.Logger        // defaults to zap.NewNop()
}

// Engine is the host-facing surface of the engagement engine. It owns every
// service and serializes all operations with one mutex, including scheduler
// ticks, so a tick always sees the reminder set as it is at fire time.
//
// Other processes may write the same store (the CLI next to a running
// daemon), so each operation re-reads the entities it touches before acting.
// Writes replace whole entities: the newer read-modify-write wins.
type Engine struct {
	mu sync.Mutex

	streak     *StreakService
	reminders  *ReminderService
	rewards    *RewardService
	challenges *ChallengeService

	profile       domain.Profile
	profileEntity entity[domain.Profile]

	notifier domain.Notifier
	clock    clock.Clock
	log      *zap.Logger
}

// NewEngine builds an engine and loads all persisted state.
// A store that cannot be read fails with ErrPersistenceUnavailable.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engagement: store is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Random == nil {
		opts.Random = NewRandom(time.Now().UnixNano())
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	challenges, err := NewChallengeService(opts.Store, opts.Catalog, opts.Logger.Named("challenge"))
	if err != nil {
		return nil, err
	}

	e := &Engine{
		streak:        NewStreakService(opts.Store, opts.Logger.Named("streak")),
		reminders:     NewReminderService(opts.Store, opts.Notifier, opts.Logger.Named("reminder")),
		rewards:       NewRewardService(opts.Store, opts.Random, opts.Logger.Named("reward")),
		challenges:    challenges,
		profileEntity: entity[domain.Profile]{store: opts.Store, key: keyProfile},
		notifier:      opts.Notifier,
		clock:         opts.Clock,
		log:           opts.Logger,
	}

	if err := e.reload(e.streak.Load, e.reminders.Load, e.rewards.Load, e.challenges.Load, e.loadProfile); err != nil {
		return nil, err
	}

	e.observeStreak(e.streak.StateAt(e.clock.Now()))
	for cat, xp := range e.challenges.Progress().CategoryXP {
		metrics.CategoryXP.WithLabelValues(string(cat)).Set(float64(xp))
	}
	return e, nil
}

// reload re-reads entities from the store. Caller holds e.mu.
func (e *Engine) reload(loads ...func() error) error {
	for _, load := range loads {
		if err := load(); err != nil {
			metrics.PersistenceErrors.WithLabelValues("load").Inc()
			return err
		}
	}
	return nil
}

// refresh is reload for read paths, which serve the cached state on failure.
func (e *Engine) refresh(loads ...func() error) {
	if err := e.reload(loads...); err != nil {
		e.log.Warn("serving cached state", zap.Error(err))
	}
}

func (e *Engine) loadProfile() error {
	p, err := e.profileEntity.load(func() domain.Profile { return domain.Profile{} })
	if err != nil {
		return err
	}
	e.profile = p
	return nil
}

// ─── Check-ins ──────────────────────────────────────────────────────────────

// RecordCheckIn records today's check-in and counts it as user activity.
func (e *Engine) RecordCheckIn() (domain.StreakState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(e.streak.Load, e.loadProfile); err != nil {
		metrics.CheckIns.WithLabelValues("error").Inc()
		return e.streak.State(), err
	}
	now := e.clock.Now()
	st, err := e.streak.RecordCheckIn(now)
	switch {
	case errors.Is(err, domain.ErrAlreadyCheckedInToday):
		metrics.CheckIns.WithLabelValues("duplicate").Inc()
		return st, err
	case err != nil:
		metrics.CheckIns.WithLabelValues("error").Inc()
		metrics.PersistenceErrors.WithLabelValues("save").Inc()
		return st, err
	}
	metrics.CheckIns.WithLabelValues("recorded").Inc()
	e.observeStreak(st)

	if err := e.touchLocked(now); err != nil {
		// The check-in itself is durable; a stale activity stamp only
		// affects the next trigger decision.
		e.log.Warn("activity not recorded", zap.Error(err))
	}
	return st, nil
}

// GetStreakState returns the streak state with the current streak evaluated
// against today.
func (e *Engine) GetStreakState() domain.StreakState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.streak.Load)
	return e.streak.StateAt(e.clock.Now())
}

// ─── Triggers ───────────────────────────────────────────────────────────────

// EvaluateTrigger decides whether a nudge should be shown now.
func (e *Engine) EvaluateTrigger() domain.TriggerDecision {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.streak.Load, e.loadProfile)
	return EvaluateTrigger(e.streak.State(), e.profile.LastActivity, e.clock.Now())
}

// TouchActivity records user activity at the current time.
func (e *Engine) TouchActivity() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reload(e.loadProfile); err != nil {
		return err
	}
	return e.touchLocked(e.clock.Now())
}

func (e *Engine) touchLocked(now time.Time) error {
	next := e.profile
	next.Interests = slices.Clone(e.profile.Interests)
	next.LastActivity = now
	if err := e.profileEntity.save(next); err != nil {
		metrics.PersistenceErrors.WithLabelValues("save").Inc()
		return err
	}
	e.profile = next
	return nil
}

// TickNudges evaluates the trigger engine and hands a positive decision to
// the notifier. Whether it reaches the user is the notifier's policy.
func (e *Engine) TickNudges(ctx context.Context, now time.Time) (domain.TriggerDecision, error) {
	e.mu.Lock()
	e.refresh(e.streak.Load, e.loadProfile)
	d := EvaluateTrigger(e.streak.State(), e.profile.LastActivity, now)
	e.mu.Unlock()

	if !d.ShouldTrigger || e.notifier == nil {
		return d, nil
	}
	n := NotificationForDecision(d)
	n.CreatedAt = now
	if err := e.notifier.Notify(ctx, n); err != nil {
		return d, err
	}
	return d, nil
}

// ─── Reminders ──────────────────────────────────────────────────────────────

// ListReminders returns all reminders ordered by ID.
func (e *Engine) ListReminders() []domain.Reminder {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.reminders.Load)
	return e.reminders.List()
}

// SaveReminder creates (ID 0) or updates a reminder.
func (e *Engine) SaveReminder(rem domain.Reminder) (domain.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reload(e.reminders.Load); err != nil {
		return domain.Reminder{}, err
	}
	return e.reminders.Save(rem)
}

// DeleteReminder removes a reminder.
func (e *Engine) DeleteReminder(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reload(e.reminders.Load); err != nil {
		return err
	}
	return e.reminders.Delete(id)
}

// ToggleReminder flips a reminder's enabled flag.
func (e *Engine) ToggleReminder(id int64) (domain.Reminder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.reload(e.reminders.Load); err != nil {
		return domain.Reminder{}, err
	}
	return e.reminders.Toggle(id)
}

// TickReminders fires the reminders due at now.
func (e *Engine) TickReminders(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	start := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(e.reminders.Load); err != nil {
		return nil, err
	}
	fired, err := e.reminders.Tick(ctx, now)
	metrics.ReminderTickDuration.Observe(time.Since(start).Seconds())
	metrics.RemindersFired.Add(float64(len(fired)))
	if err != nil {
		metrics.PersistenceErrors.WithLabelValues("save").Inc()
	}
	return fired, err
}

// NewReminderScheduler returns a scheduler that ticks reminders every interval.
func (e *Engine) NewReminderScheduler(interval time.Duration) *Scheduler {
	return NewScheduler(interval, e.clock.Now, func(ctx context.Context, now time.Time) {
		if _, err := e.TickReminders(ctx, now); err != nil {
			e.log.Warn("reminder tick failed", zap.Error(err))
		}
	})
}

// NewNudgeScheduler returns a scheduler that evaluates nudges every interval.
func (e *Engine) NewNudgeScheduler(interval time.Duration) *Scheduler {
	return NewScheduler(interval, e.clock.Now, func(ctx context.Context, now time.Time) {
		if _, err := e.TickNudges(ctx, now); err != nil {
			e.log.Warn("nudge tick failed", zap.Error(err))
		}
	})
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// CheckForRewards surfaces a reward for the current streak. When interests is
// empty the saved profile interests are used. Returns nil when nothing is
// eligible.
func (e *Engine) CheckForRewards(interests []string) *domain.RewardCandidate {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refresh(e.streak.Load, e.rewards.Load, e.loadProfile)
	if len(interests) == 0 {
		interests = e.profile.Interests
	}
	st := e.streak.StateAt(e.clock.Now())
	c := e.rewards.Check(st.CurrentStreak, interests)
	if c != nil {
		metrics.RewardsOffered.WithLabelValues(string(c.Type)).Inc()
	}
	return c
}

// ClaimReward claims a surfaced reward.
func (e *Engine) ClaimReward(rewardID string) (domain.ClaimedReward, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(e.rewards.Load); err != nil {
		return domain.ClaimedReward{}, err
	}
	claim, err := e.rewards.Claim(rewardID, e.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			metrics.PersistenceErrors.WithLabelValues("save").Inc()
		}
		return claim, err
	}
	metrics.RewardsClaimed.WithLabelValues(string(claim.Type)).Inc()
	return claim, nil
}

// ClaimHistory returns up to limit claims, newest first.
func (e *Engine) ClaimHistory(limit int) []domain.ClaimedReward {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.rewards.Load)
	return e.rewards.History(limit)
}

// SetInterests replaces the saved interests. Blank and duplicate entries are
// dropped; comparison is case-insensitive.
func (e *Engine) SetInterests(interests []string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var clean []string
	for _, s := range interests {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !slices.Contains(clean, s) {
			clean = append(clean, s)
		}
	}

	if err := e.reload(e.loadProfile); err != nil {
		return nil, err
	}
	next := e.profile
	next.Interests = clean
	if err := e.profileEntity.save(next); err != nil {
		metrics.PersistenceErrors.WithLabelValues("save").Inc()
		return nil, err
	}
	e.profile = next
	e.log.Info("interests updated", zap.Strings("interests", clean))
	return slices.Clone(clean), nil
}

// Interests returns the saved interests.
func (e *Engine) Interests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.loadProfile)
	return slices.Clone(e.profile.Interests)
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// ListChallenges lists a category's challenges with status; "" lists all.
func (e *Engine) ListChallenges(category domain.ChallengeCategory) []domain.ChallengeView {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.challenges.Load)
	return e.challenges.List(category)
}

// StartChallenge starts an available challenge.
func (e *Engine) StartChallenge(id string) (domain.ChallengeView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(e.challenges.Load); err != nil {
		return domain.ChallengeView{}, err
	}
	v, err := e.challenges.Start(id, e.clock.Now())
	if err != nil {
		return v, err
	}
	metrics.ChallengeTransitions.WithLabelValues(string(v.Category), "start").Inc()
	return v, nil
}

// CompleteChallenge completes an active challenge and credits its XP.
func (e *Engine) CompleteChallenge(id string) (domain.ChallengeView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(e.challenges.Load); err != nil {
		return domain.ChallengeView{}, err
	}
	v, err := e.challenges.Complete(id, e.clock.Now())
	if err != nil {
		return v, err
	}
	metrics.ChallengeTransitions.WithLabelValues(string(v.Category), "complete").Inc()
	metrics.CategoryXP.WithLabelValues(string(v.Category)).Set(float64(e.challenges.CategoryXP(v.Category)))
	return v, nil
}

// Level returns the overall level from total challenge XP.
func (e *Engine) Level() domain.UserLevel {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh(e.challenges.Load)
	return LevelFor(e.challenges.Progress().TotalXP())
}

// ─── Summary ────────────────────────────────────────────────────────────────

// Summary aggregates the dashboard view at the current time.
func (e *Engine) Summary() domain.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refresh(e.streak.Load, e.challenges.Load, e.loadProfile)
	now := e.clock.Now()
	st := e.streak.StateAt(now)
	progress := e.challenges.Progress()
	return domain.Summary{
		Streak:         st,
		NextMilestone:  NextMilestone(st.CurrentStreak),
		RecentActivity: RecentActivity(st.History, DayKey(now), recentActivityDays),
		Trigger:        EvaluateTrigger(e.streak.State(), e.profile.LastActivity, now),
		Level:          LevelFor(progress.TotalXP()),
		CategoryXP:     progress.CategoryXP,
	}
}

func (e *Engine) observeStreak(st domain.StreakState) {
	metrics.CurrentStreak.Set(float64(st.CurrentStreak))
	metrics.LongestStreak.Set(float64(st.LongestStreak))
}
