package engagement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/habitloop/habitloop/internal/app/engagement"
	"github.com/habitloop/habitloop/internal/clock"
	"github.com/habitloop/habitloop/internal/domain"
)

func TestNewEngine_RequiresStore(t *testing.T) {
	if _, err := engagement.NewEngine(engagement.Options{}); err == nil {
		t.Error("expected error without a store")
	}
}

func TestNewEngine_LoadFailure(t *testing.T) {
	store := &flakyStore{StateStore: testDB(t), failLoad: true}
	_, err := engagement.NewEngine(engagement.Options{Store: store})
	if !errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Errorf("err = %v, want ErrPersistenceUnavailable", err)
	}
}

func TestNewEngine_CorruptState(t *testing.T) {
	db := testDB(t)
	if err := db.Save("streak", []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := engagement.NewEngine(engagement.Options{Store: db})
	if !errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Errorf("err = %v, want ErrPersistenceUnavailable", err)
	}
}

func TestEngine_Summary(t *testing.T) {
	e := newEngine(t, engagement.Options{})

	if _, err := e.RecordCheckIn(); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := e.StartChallenge("cardio-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.CompleteChallenge("cardio-1"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s := e.Summary()
	if s.Streak.CurrentStreak != 1 || s.NextMilestone != 3 {
		t.Errorf("streak = %d, next = %d", s.Streak.CurrentStreak, s.NextMilestone)
	}
	if len(s.RecentActivity) != 14 || !s.RecentActivity[13] || s.RecentActivity[12] {
		t.Errorf("recent activity = %v", s.RecentActivity)
	}
	if s.CategoryXP[domain.CategoryCardio] != 50 {
		t.Errorf("cardio xp = %d", s.CategoryXP[domain.CategoryCardio])
	}
	if s.Level.CurrentXP != 50 || s.Level.Level != 1 {
		t.Errorf("level = %+v", s.Level)
	}
	// Checked in today with a one-day streak.
	if s.Trigger.ShouldTrigger {
		t.Errorf("trigger = %+v", s.Trigger)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Shared Store Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestEngine_SharedStoreKeepsOtherWrites(t *testing.T) {
	db := testDB(t)
	clk := clock.Fixed(at(monday, "07:00"))
	rec := &recorder{}
	server := newEngine(t, engagement.Options{Store: db, Clock: clk, Notifier: rec})
	oneShot := newEngine(t, engagement.Options{Store: db, Clock: clk})

	if _, err := server.SaveReminder(domain.Reminder{Title: "A", Time: "07:00", Days: []int{1}, Enabled: true}); err != nil {
		t.Fatalf("save A: %v", err)
	}
	b, err := oneShot.SaveReminder(domain.Reminder{Title: "B", Time: "07:00", Days: []int{1}, Enabled: true})
	if err != nil {
		t.Fatalf("save B: %v", err)
	}
	if b.ID != 2 {
		t.Errorf("B got id %d, want 2", b.ID)
	}
	if _, err := oneShot.RecordCheckIn(); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if _, err := oneShot.StartChallenge("cardio-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	fired, err := server.TickReminders(context.Background(), clk.Now())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(fired) != 2 || rec.count() != 2 {
		t.Errorf("fired = %d, sent = %d; want both reminders", len(fired), rec.count())
	}
	if _, err := server.RecordCheckIn(); !errors.Is(err, domain.ErrAlreadyCheckedInToday) {
		t.Errorf("server check-in err = %v, want ErrAlreadyCheckedInToday", err)
	}
	if _, err := server.CompleteChallenge("cardio-1"); err != nil {
		t.Errorf("complete started challenge: %v", err)
	}

	fresh := newEngine(t, engagement.Options{Store: db, Clock: clk})
	if got := fresh.ListReminders(); len(got) != 2 {
		t.Errorf("reminders after tick = %d, want 2", len(got))
	}
	if st := fresh.GetStreakState(); st.CurrentStreak != 1 {
		t.Errorf("streak = %d, want 1", st.CurrentStreak)
	}
	if lvl := fresh.Level(); lvl.CurrentXP != 50 {
		t.Errorf("xp = %d, want 50", lvl.CurrentXP)
	}
	// Reads pick up the other engine's writes without a restart.
	if got := oneShot.ListReminders(); len(got) != 2 || got[0].LastTriggeredKey == "" {
		t.Errorf("one-shot view = %+v", got)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestXPForLevel_Increasing(t *testing.T) {
	if engagement.XPForLevel(1) != 0 {
		t.Errorf("level 1 needs %d XP", engagement.XPForLevel(1))
	}
	for lvl := 2; lvl <= 100; lvl++ {
		if engagement.XPForLevel(lvl) <= engagement.XPForLevel(lvl-1) {
			t.Fatalf("XPForLevel(%d) not above level %d", lvl, lvl-1)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	for lvl := 2; lvl <= 20; lvl++ {
		xp := engagement.XPForLevel(lvl)
		if got := engagement.LevelForXP(xp); got != lvl {
			t.Errorf("LevelForXP(%d) = %d, want %d", xp, got, lvl)
		}
		if got := engagement.LevelForXP(xp - 1); got != lvl-1 {
			t.Errorf("LevelForXP(%d) = %d, want %d", xp-1, got, lvl-1)
		}
	}
}

func TestLevelFor(t *testing.T) {
	zero := engagement.LevelFor(0)
	if zero.Level != 1 || zero.ProgressPct != 0 || zero.ToNextLevel != engagement.XPForLevel(2) {
		t.Errorf("LevelFor(0) = %+v", zero)
	}

	top := engagement.LevelFor(engagement.XPForLevel(100) * 2)
	if top.Level != 100 || top.ProgressPct != 100 || top.ToNextLevel != 0 {
		t.Errorf("capped level = %+v", top)
	}

	mid := engagement.LevelFor(engagement.XPForLevel(3) + (engagement.XPForLevel(4)-engagement.XPForLevel(3))/2)
	if mid.Level != 3 || mid.ProgressPct < 45 || mid.ProgressPct > 55 {
		t.Errorf("mid level = %+v", mid)
	}
}
