// Package metrics provides Prometheus metrics for habitloop:
// check-ins, reminders, rewards, challenges and notifications.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Check-ins ──────────────────────────────────────────────────────────────

// CheckIns counts check-in attempts by result (recorded, duplicate, error).
var CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "checkins_total",
	Help:      "Check-in attempts by result.",
}, []string{"result"})

// CurrentStreak tracks the current streak length in days.
var CurrentStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "habitloop",
	Name:      "streak_current_days",
	Help:      "Current consecutive-day streak.",
})

// LongestStreak tracks the longest streak length in days.
var LongestStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "habitloop",
	Name:      "streak_longest_days",
	Help:      "Longest consecutive-day streak.",
})

// ─── Reminders ──────────────────────────────────────────────────────────────

// RemindersFired counts reminder notifications fired by the scheduler.
var RemindersFired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "reminders_fired_total",
	Help:      "Reminders fired by the scheduler tick.",
})

// ReminderTickDuration tracks how long each scheduler tick takes.
var ReminderTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "habitloop",
	Name:      "reminder_tick_seconds",
	Help:      "Duration of one reminder scheduler tick.",
	Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
})

// ─── Rewards ────────────────────────────────────────────────────────────────

// RewardsOffered counts surfaced rewards by type.
var RewardsOffered = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "rewards_offered_total",
	Help:      "Rewards surfaced to the user by type.",
}, []string{"type"})

// RewardsClaimed counts claimed rewards by type.
var RewardsClaimed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "rewards_claimed_total",
	Help:      "Rewards claimed by type.",
}, []string{"type"})

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeTransitions counts challenge starts and completions by category.
var ChallengeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "challenge_transitions_total",
	Help:      "Challenge starts and completions by category.",
}, []string{"category", "action"})

// CategoryXP tracks cumulative XP per challenge category.
var CategoryXP = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "habitloop",
	Name:      "category_xp",
	Help:      "Cumulative challenge XP per category.",
}, []string{"category"})

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationsSent counts recorded notifications by type.
var NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "notifications_sent_total",
	Help:      "Notifications recorded and forwarded by type.",
}, []string{"type"})

// NotificationsSuppressed counts nudges held back by policy.
var NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "notifications_suppressed_total",
	Help:      "Nudges suppressed by the notification policy.",
}, []string{"reason"})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistenceErrors counts failed loads and saves.
var PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "habitloop",
	Name:      "persistence_errors_total",
	Help:      "Failed state loads and saves by operation.",
}, []string{"op"})
