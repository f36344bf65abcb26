// Package engagement implements the habit engagement engine:
// check-in streaks, triggers, reminders, variable rewards and challenges.
// Trigger → action → variable reward → investment.
package engagement

import (
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/domain"
)

// milestones is the fixed ascending milestone sequence.
var milestones = []int{3, 5, 7, 10, 14, 21, 30, 50, 100}

// StreakService owns the check-in history and streak counters.
// A day counts once; a check-in the day after the previous one extends the
// streak, anything else starts over at 1. Not safe for concurrent use.
type StreakService struct {
	state  domain.StreakState
	entity entity[domain.StreakState]
	log    *zap.Logger
}

// NewStreakService creates a streak service backed by store.
func NewStreakService(store domain.StateStore, log *zap.Logger) *StreakService {
	return &StreakService{
		entity: entity[domain.StreakState]{store: store, key: keyStreak},
		log:    log,
	}
}

// Load reads the persisted streak state.
func (s *StreakService) Load() error {
	state, err := s.entity.load(func() domain.StreakState { return domain.StreakState{} })
	if err != nil {
		return err
	}
	s.state = state
	return nil
}

// State returns a copy of the stored state.
func (s *StreakService) State() domain.StreakState {
	return s.state.Clone()
}

// StateAt returns the stored state with CurrentStreak recomputed for now,
// so a streak that lapsed before yesterday reads as 0.
func (s *StreakService) StateAt(now time.Time) domain.StreakState {
	st := s.state.Clone()
	st.CurrentStreak = CurrentStreakAt(st.History, DayKey(now))
	return st
}

// RecordCheckIn records today's check-in.
// Returns ErrAlreadyCheckedInToday if one already exists for now's calendar day.
func (s *StreakService) RecordCheckIn(now time.Time) (domain.StreakState, error) {
	today := DayKey(now)
	if s.state.HasCheckIn(today) {
		return s.state.Clone(), domain.ErrAlreadyCheckedInToday
	}

	next := NextStreak(s.state, now)
	if err := s.entity.save(next); err != nil {
		return s.state.Clone(), err
	}
	s.state = next

	s.log.Info("check-in recorded",
		zap.String("date", today),
		zap.Int("current_streak", next.CurrentStreak),
		zap.Int("longest_streak", next.LongestStreak))
	return next.Clone(), nil
}

// ─── Streak math ────────────────────────────────────────────────────────────
// Only consecutive-day adjacency is consulted; RecentActivity is display-only.

// NextStreak returns the state after a check-in at now. The caller ensures no
// record exists for now's day.
func NextStreak(prev domain.StreakState, now time.Time) domain.StreakState {
	today := DayKey(now)
	next := prev.Clone()

	// Previous run is whatever consecutive sequence ends yesterday.
	next.CurrentStreak = runEndingAt(prev.History, AddDays(today, -1)) + 1

	next.History = append([]domain.CheckInRecord{{Date: today, Timestamp: now}}, next.History...)
	slices.SortStableFunc(next.History, func(a, b domain.CheckInRecord) int {
		return strings.Compare(b.Date, a.Date)
	})
	next.LastCheckIn = next.History[0].Date
	next.LongestStreak = max(next.LongestStreak, next.CurrentStreak)
	return next
}

// CurrentStreakAt counts consecutive check-in days ending today, or ending
// yesterday when today has no check-in yet.
func CurrentStreakAt(history []domain.CheckInRecord, today string) int {
	if n := runEndingAt(history, today); n > 0 {
		return n
	}
	return runEndingAt(history, AddDays(today, -1))
}

// runEndingAt counts consecutive days with a record ending at day.
func runEndingAt(history []domain.CheckInRecord, day string) int {
	days := make(map[string]struct{}, len(history))
	for _, r := range history {
		days[r.Date] = struct{}{}
	}
	n := 0
	for {
		if _, ok := days[day]; !ok {
			return n
		}
		n++
		day = AddDays(day, -1)
	}
}

// RecentActivity returns n booleans, oldest first, ending at today; true when
// that day has a check-in.
func RecentActivity(history []domain.CheckInRecord, today string, n int) []bool {
	if n <= 0 {
		return nil
	}
	days := make(map[string]struct{}, len(history))
	for _, r := range history {
		days[r.Date] = struct{}{}
	}
	out := make([]bool, n)
	for k := 0; k < n; k++ {
		_, ok := days[AddDays(today, -k)]
		out[n-1-k] = ok
	}
	return out
}

// NextMilestone returns the smallest milestone strictly greater than current.
// Past 100 it is the next multiple of 10.
func NextMilestone(current int) int {
	for _, m := range milestones {
		if m > current {
			return m
		}
	}
	return (current/10 + 1) * 10
}

// ─── Calendar days ──────────────────────────────────────────────────────────

// DayKey returns t's calendar day in t's own location.
func DayKey(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// AddDays shifts a "2006-01-02" day by n days. Invalid input is returned unchanged.
func AddDays(day string, n int) string {
	t, err := time.Parse(domain.DateLayout, day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, n).Format(domain.DateLayout)
}
