package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestCheckInMetrics(t *testing.T) {
	CheckIns.WithLabelValues("recorded").Inc()
	CurrentStreak.Set(4)
	LongestStreak.Set(9)

	names := gatheredNames(t)
	for _, name := range []string{
		"habitloop_checkins_total",
		"habitloop_streak_current_days",
		"habitloop_streak_longest_days",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
	if got := testutil.ToFloat64(CurrentStreak); got != 4 {
		t.Errorf("CurrentStreak = %v, want 4", got)
	}
}

func TestReminderMetrics(t *testing.T) {
	before := testutil.ToFloat64(RemindersFired)
	RemindersFired.Add(2)
	ReminderTickDuration.Observe(0.002)

	if got := testutil.ToFloat64(RemindersFired) - before; got != 2 {
		t.Errorf("RemindersFired delta = %v, want 2", got)
	}
	if !gatheredNames(t)["habitloop_reminder_tick_seconds"] {
		t.Error("habitloop_reminder_tick_seconds not found")
	}
}

func TestRewardAndChallengeMetrics(t *testing.T) {
	RewardsOffered.WithLabelValues("progress").Inc()
	RewardsClaimed.WithLabelValues("progress").Inc()
	ChallengeTransitions.WithLabelValues("cardio", "complete").Inc()
	CategoryXP.WithLabelValues("cardio").Set(150)

	names := gatheredNames(t)
	for _, name := range []string{
		"habitloop_rewards_offered_total",
		"habitloop_rewards_claimed_total",
		"habitloop_challenge_transitions_total",
		"habitloop_category_xp",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
	if got := testutil.ToFloat64(CategoryXP.WithLabelValues("cardio")); got != 150 {
		t.Errorf("cardio xp = %v, want 150", got)
	}
}

func TestNotificationMetrics(t *testing.T) {
	NotificationsSent.WithLabelValues("reminder").Inc()
	NotificationsSuppressed.WithLabelValues("quiet_hours").Inc()
	PersistenceErrors.WithLabelValues("save").Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"habitloop_notifications_sent_total",
		"habitloop_notifications_suppressed_total",
		"habitloop_persistence_errors_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
