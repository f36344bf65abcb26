package engagement

import (
	"fmt"
	"slices"
	"time"

	"github.com/habitloop/habitloop/internal/domain"
)

// routineSampleSize is how many recent check-ins define the typical time.
const routineSampleSize = 5

// preMilestoneStreaks are the streak lengths that earn a "one more day" nudge.
var preMilestoneStreaks = []int{4, 9, 24, 29, 99}

// EvaluateTrigger decides whether a nudge should fire at now. First match wins:
//  1. no history, or no activity yet today → generic reminder
//  2. past the typical check-in time with no check-in today → missed routine
//  3. streak one short of a milestone → milestone
//  4. nothing
//
// lastActivity is the host's most recent user-activity instant; a zero value
// counts as never. The decision has no side effects.
func EvaluateTrigger(state domain.StreakState, lastActivity, now time.Time) domain.TriggerDecision {
	today := DayKey(now)

	if len(state.History) == 0 || lastActivity.IsZero() || DayKey(lastActivity.In(now.Location())) != today {
		return domain.TriggerDecision{
			ShouldTrigger: true,
			Kind:          domain.TriggerReminder,
			Message:       "Time to check in! Keep your habit going today.",
		}
	}

	if typical, ok := TypicalCheckInMinute(state.History, now.Location()); ok && !state.HasCheckIn(today) {
		if minuteOfDay(now) > typical {
			return domain.TriggerDecision{
				ShouldTrigger: true,
				Kind:          domain.TriggerMissedRoutine,
				Message:       fmt.Sprintf("You usually check in around %s. Still time to keep your routine!", formatMinute(typical)),
			}
		}
	}

	current := CurrentStreakAt(state.History, today)
	if slices.Contains(preMilestoneStreaks, current) {
		return domain.TriggerDecision{
			ShouldTrigger: true,
			Kind:          domain.TriggerMilestone,
			Message:       fmt.Sprintf("One more day to reach a %d-day streak!", current+1),
		}
	}

	return domain.TriggerDecision{}
}

// TypicalCheckInMinute averages the minute-of-day of the most recent check-ins
// in loc. ok is false with no history.
func TypicalCheckInMinute(history []domain.CheckInRecord, loc *time.Location) (int, bool) {
	n := min(len(history), routineSampleSize)
	if n == 0 {
		return 0, false
	}
	total := 0
	for _, r := range history[:n] {
		total += minuteOfDay(r.Timestamp.In(loc))
	}
	return total / n, true
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
