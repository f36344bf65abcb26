package engagement_test

import (
	"context"
	"testing"
	"time"

	"github.com/habitloop/habitloop/internal/app/engagement"
	"github.com/habitloop/habitloop/internal/clock"
	"github.com/habitloop/habitloop/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Notification Policy
// ═══════════════════════════════════════════════════════════════════════════

func newNotifications(t *testing.T, now time.Time, policy domain.NotificationPolicy) (*engagement.NotificationService, *recorder) {
	t.Helper()
	rec := &recorder{}
	return engagement.NewNotificationService(testDB(t), rec, policy, clock.Fixed(now), nil), rec
}

func TestNotify_DailyCapAppliesToNudgesOnly(t *testing.T) {
	svc, rec := newNotifications(t, monday, domain.DefaultNotificationPolicy())
	ctx := context.Background()

	id, err := svc.Create(ctx, domain.Notification{Type: domain.NotifyNudge, Title: "Daily check-in"})
	if err != nil || id == 0 {
		t.Fatalf("first nudge = %d, %v", id, err)
	}

	// Cap is shared across nudge kinds.
	for _, typ := range []domain.NotificationType{domain.NotifyNudge, domain.NotifyMilestone, domain.NotifyMissedRoutine} {
		id, err := svc.Create(ctx, domain.Notification{Type: typ, Title: "again"})
		if err != nil {
			t.Fatalf("create %s: %v", typ, err)
		}
		if id != 0 {
			t.Errorf("%s over the cap got id %d", typ, id)
		}
	}

	id, err = svc.Create(ctx, domain.Notification{Type: domain.NotifyReminder, Title: "Stretch"})
	if err != nil || id == 0 {
		t.Errorf("reminder = %d, %v; reminders are not capped", id, err)
	}
	if rec.count() != 2 {
		t.Errorf("forwarded = %d, want 2", rec.count())
	}
}

func TestNotify_QuietHours(t *testing.T) {
	late := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	svc, rec := newNotifications(t, late, domain.DefaultNotificationPolicy())
	ctx := context.Background()

	if id, _ := svc.Create(ctx, domain.Notification{Type: domain.NotifyNudge}); id != 0 {
		t.Error("nudge during quiet hours should be held back")
	}
	if id, _ := svc.Create(ctx, domain.Notification{Type: domain.NotifyReminder, Title: "Night stretch"}); id == 0 {
		t.Error("reminder during quiet hours should go out")
	}
	if rec.count() != 1 || rec.sent[0].Type != domain.NotifyReminder {
		t.Errorf("forwarded = %+v", rec.sent)
	}
	if !rec.sent[0].CreatedAt.Equal(late) {
		t.Errorf("CreatedAt = %v, want clock time", rec.sent[0].CreatedAt)
	}
}

func TestNotify_QuietWindows(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.NotificationPolicy
		hhmm   string
		quiet  bool
	}{
		{"wrap late", domain.DefaultNotificationPolicy(), "22:00", true},
		{"wrap early", domain.DefaultNotificationPolicy(), "07:59", true},
		{"wrap end", domain.DefaultNotificationPolicy(), "08:00", false},
		{"same day inside", domain.NotificationPolicy{MaxPerDay: 5, QuietStart: "12:00", QuietEnd: "13:00"}, "12:30", true},
		{"same day outside", domain.NotificationPolicy{MaxPerDay: 5, QuietStart: "12:00", QuietEnd: "13:00"}, "13:30", false},
		{"empty window", domain.NotificationPolicy{MaxPerDay: 5, QuietStart: "10:00", QuietEnd: "10:00"}, "10:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newNotifications(t, at(monday, tt.hhmm), tt.policy)
			id, err := svc.Create(context.Background(), domain.Notification{Type: domain.NotifyNudge})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if got := id == 0; got != tt.quiet {
				t.Errorf("suppressed = %v, want %v", got, tt.quiet)
			}
		})
	}
}

func TestNotify_PendingAndShown(t *testing.T) {
	svc, _ := newNotifications(t, monday, domain.DefaultNotificationPolicy())
	ctx := context.Background()

	id, err := svc.Create(ctx, domain.Notification{Type: domain.NotifyReminder, Title: "Stretch"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pending, err := svc.Pending(10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending = %v, %v", pending, err)
	}
	if err := svc.MarkShown(id); err != nil {
		t.Fatalf("MarkShown: %v", err)
	}
	if pending, _ = svc.Pending(10); len(pending) != 0 {
		t.Errorf("pending after shown = %d", len(pending))
	}
}

func TestNotificationForDecision(t *testing.T) {
	tests := []struct {
		kind domain.TriggerKind
		want domain.NotificationType
	}{
		{domain.TriggerReminder, domain.NotifyNudge},
		{domain.TriggerMissedRoutine, domain.NotifyMissedRoutine},
		{domain.TriggerMilestone, domain.NotifyMilestone},
	}
	for _, tt := range tests {
		n := engagement.NotificationForDecision(domain.TriggerDecision{ShouldTrigger: true, Kind: tt.kind, Message: "m"})
		if n.Type != tt.want || n.Body != "m" || n.Title == "" {
			t.Errorf("%s → %+v", tt.kind, n)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Nudge Ticks
// ═══════════════════════════════════════════════════════════════════════════

func TestTickNudges_RespectsPolicy(t *testing.T) {
	db := testDB(t)
	clk, set := movableClock(monday)
	rec := &recorder{}
	svc := engagement.NewNotificationService(db, rec, domain.DefaultNotificationPolicy(), clk, nil)
	e := newEngine(t, engagement.Options{Store: db, Clock: clk, Notifier: svc})
	ctx := context.Background()

	d, err := e.TickNudges(ctx, monday)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !d.ShouldTrigger || d.Kind != domain.TriggerReminder {
		t.Fatalf("decision = %+v", d)
	}
	if rec.count() != 1 || rec.sent[0].Type != domain.NotifyNudge {
		t.Fatalf("sent = %+v", rec.sent)
	}

	// Capped for the rest of the day.
	if _, err := e.TickNudges(ctx, monday.Add(time.Hour)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("sent = %d after cap", rec.count())
	}

	// Next day, but inside quiet hours.
	late := time.Date(2025, 3, 11, 23, 30, 0, 0, time.UTC)
	set(late)
	if _, err := e.TickNudges(ctx, late); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("sent = %d during quiet hours", rec.count())
	}
}

func TestTickNudges_NothingToSay(t *testing.T) {
	rec := &recorder{}
	e := newEngine(t, engagement.Options{Notifier: rec})
	if _, err := e.RecordCheckIn(); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	d, err := e.TickNudges(context.Background(), monday)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if d.ShouldTrigger || rec.count() != 0 {
		t.Errorf("decision = %+v, sent = %d", d, rec.count())
	}
}
