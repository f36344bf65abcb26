// Package domain holds the habit engagement types.
// The engine turns check-ins into streaks, triggers, variable rewards
// and challenge progression. Types here are pure data; no storage.
package domain

import (
	"slices"
	"time"
)

// DateLayout is the calendar-day format used for check-in dates and trigger keys.
const DateLayout = "2006-01-02"

// TimeLayout is the hour:minute format used for reminders.
const TimeLayout = "15:04"

// ─── Check-ins & Streaks ────────────────────────────────────────────────────

// CheckInRecord is one day's check-in. Immutable once created.
type CheckInRecord struct {
	Date      string    `json:"date"` // "2006-01-02" in the clock's zone
	Timestamp time.Time `json:"timestamp"`
}

// StreakState is the consistency state derived from check-ins.
// History is ordered newest first and holds at most one record per day.
type StreakState struct {
	CurrentStreak int             `json:"current_streak"`
	LongestStreak int             `json:"longest_streak"`
	LastCheckIn   string          `json:"last_check_in,omitempty"`
	History       []CheckInRecord `json:"history"`
}

// HasCheckIn reports whether a record exists for the given date.
func (s StreakState) HasCheckIn(date string) bool {
	return slices.ContainsFunc(s.History, func(r CheckInRecord) bool { return r.Date == date })
}

// Clone returns a deep copy so callers can mutate without touching s.
func (s StreakState) Clone() StreakState {
	s.History = slices.Clone(s.History)
	return s
}

// ─── Triggers ───────────────────────────────────────────────────────────────

// TriggerKind classifies a trigger decision.
type TriggerKind string

const (
	TriggerNone          TriggerKind = ""
	TriggerReminder      TriggerKind = "reminder"
	TriggerMissedRoutine TriggerKind = "missed_routine"
	TriggerMilestone     TriggerKind = "milestone"
)

// TriggerDecision says whether a nudge should go out now and why.
type TriggerDecision struct {
	ShouldTrigger bool        `json:"should_trigger"`
	Kind          TriggerKind `json:"kind,omitempty"`
	Message       string      `json:"message,omitempty"`
}

// ─── Reminders ──────────────────────────────────────────────────────────────

// Reminder is a user-configured recurring weekday + time reminder.
// Days uses time.Weekday numbering (Sunday=0).
type Reminder struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	Time             string `json:"time"` // "HH:MM"
	Days             []int  `json:"days"`
	Enabled          bool   `json:"enabled"`
	LastTriggeredKey string `json:"last_triggered_key,omitempty"`
}

// OnDay reports whether the reminder is scheduled for the weekday.
func (r Reminder) OnDay(wd time.Weekday) bool {
	return slices.Contains(r.Days, int(wd))
}

// ReminderSet is the persisted collection of reminders.
type ReminderSet struct {
	NextID    int64      `json:"next_id"`
	Reminders []Reminder `json:"reminders"`
}

// Clone returns a deep copy.
func (s ReminderSet) Clone() ReminderSet {
	out := ReminderSet{NextID: s.NextID, Reminders: make([]Reminder, len(s.Reminders))}
	for i, r := range s.Reminders {
		r.Days = slices.Clone(r.Days)
		out.Reminders[i] = r
	}
	return out
}

// ─── Rewards ────────────────────────────────────────────────────────────────

// RewardType categorizes reward candidates.
type RewardType string

const (
	RewardProgress     RewardType = "progress"
	RewardStreak       RewardType = "streak"
	RewardMilestone    RewardType = "milestone"
	RewardPersonalized RewardType = "personalized"
	RewardSurprise     RewardType = "surprise"
)

// RewardCandidate is a catalog entry that may be surfaced after an action.
type RewardCandidate struct {
	ID          string     `json:"id"`
	Type        RewardType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Value       string     `json:"value"`
	Probability float64    `json:"probability"`
}

// ClaimedReward is an entry in the append-only claim log.
type ClaimedReward struct {
	ID        string     `json:"id"`
	RewardID  string     `json:"reward_id"`
	Type      RewardType `json:"type"`
	Title     string     `json:"title"`
	ClaimedAt time.Time  `json:"claimed_at"`
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeCategory groups challenges into independent progression tracks.
type ChallengeCategory string

const (
	CategoryStrength    ChallengeCategory = "strength"
	CategoryCardio      ChallengeCategory = "cardio"
	CategoryFlexibility ChallengeCategory = "flexibility"
	CategoryMindfulness ChallengeCategory = "mindfulness"
)

// Challenge is a static catalog entry gated by cumulative category XP.
type Challenge struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Category          ChallengeCategory `json:"category"`
	XPReward          int64             `json:"xp_reward"`
	UnlockThresholdXP int64             `json:"unlock_threshold_xp"`
}

// ChallengeStatus is the derived state of a challenge for display.
type ChallengeStatus string

const (
	ChallengeLocked    ChallengeStatus = "locked"
	ChallengeAvailable ChallengeStatus = "available"
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
)

// ChallengeView pairs a challenge with its current status.
type ChallengeView struct {
	Challenge
	Status ChallengeStatus `json:"status"`
}

// ChallengeProgress is the persisted progression state.
type ChallengeProgress struct {
	CategoryXP map[ChallengeCategory]int64 `json:"category_xp"`
	Active     map[string]time.Time        `json:"active"`    // challenge ID → started at
	Completed  map[string]time.Time        `json:"completed"` // challenge ID → completed at
}

// NewChallengeProgress returns empty progress.
func NewChallengeProgress() ChallengeProgress {
	return ChallengeProgress{
		CategoryXP: make(map[ChallengeCategory]int64),
		Active:     make(map[string]time.Time),
		Completed:  make(map[string]time.Time),
	}
}

// Clone returns a deep copy with non-nil maps.
func (p ChallengeProgress) Clone() ChallengeProgress {
	out := NewChallengeProgress()
	for k, v := range p.CategoryXP {
		out.CategoryXP[k] = v
	}
	for k, v := range p.Active {
		out.Active[k] = v
	}
	for k, v := range p.Completed {
		out.Completed[k] = v
	}
	return out
}

// TotalXP sums XP across all categories.
func (p ChallengeProgress) TotalXP() int64 {
	var total int64
	for _, xp := range p.CategoryXP {
		total += xp
	}
	return total
}

// ─── Level ──────────────────────────────────────────────────────────────────

// UserLevel represents the overall level derived from total challenge XP.
type UserLevel struct {
	Level       int     `json:"level"`
	CurrentXP   int64   `json:"current_xp"`
	ToNextLevel int64   `json:"to_next_level"`
	ProgressPct float64 `json:"progress_pct"`
}

// ─── Profile ────────────────────────────────────────────────────────────────

// Profile holds user investment data that personalizes rewards and triggers.
type Profile struct {
	Interests    []string  `json:"interests"`
	LastActivity time.Time `json:"last_activity"`
}

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyReminder      NotificationType = "reminder"
	NotifyNudge         NotificationType = "nudge"
	NotifyMissedRoutine NotificationType = "missed_routine"
	NotifyMilestone     NotificationType = "milestone"
)

// Notification is a user-facing message handed to a Notifier.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often nudges are sent.
// User-configured reminders are not subject to it.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day"`
	QuietStart string `json:"quiet_start"` // "22:00"
	QuietEnd   string `json:"quiet_end"`   // "08:00"
}

// DefaultNotificationPolicy returns one nudge a day outside 22:00–08:00.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  1,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}

// ─── Summary ────────────────────────────────────────────────────────────────

// Summary aggregates the dashboard-facing view of the engine.
type Summary struct {
	Streak         StreakState                 `json:"streak"`
	NextMilestone  int                         `json:"next_milestone"`
	RecentActivity []bool                      `json:"recent_activity"`
	Trigger        TriggerDecision             `json:"trigger"`
	Level          UserLevel                   `json:"level"`
	CategoryXP     map[ChallengeCategory]int64 `json:"category_xp"`
}
