package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/habitloop/habitloop/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := db.Save("streak", []byte(`{"current_streak":2}`)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	db.Close()

	// Migrations are idempotent and data survives.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()

	got, found, err := db.Load("streak")
	if err != nil || !found {
		t.Fatalf("Load() = found %v, err %v", found, err)
	}
	if string(got) != `{"current_streak":2}` {
		t.Errorf("Load() = %s", got)
	}
}

// ─── Engagement State ───────────────────────────────────────────────────────

func TestLoad_Missing(t *testing.T) {
	db := newTestDB(t)
	v, found, err := db.Load("reminders")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if found || v != nil {
		t.Errorf("Load() = %q, %v; want nothing", v, found)
	}
}

func TestSave_Upsert(t *testing.T) {
	db := newTestDB(t)

	if err := db.Save("profile", []byte(`{"interests":["cardio"]}`)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := db.Save("profile", []byte(`{"interests":["strength"]}`)); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, _, err := db.Load("profile")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if string(got) != `{"interests":["strength"]}` {
		t.Errorf("Load() = %s, want latest value", got)
	}

	keys, err := db.Keys()
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 1 || keys[0] != "profile" {
		t.Errorf("Keys() = %v, want [profile]", keys)
	}
}

func TestSave_Closed(t *testing.T) {
	db := newTestDB(t)
	db.Close()
	if err := db.Save("streak", []byte("{}")); err == nil {
		t.Error("Save() on closed db should fail")
	}
	if _, _, err := db.Load("streak"); err == nil {
		t.Error("Load() on closed db should fail")
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotifications_InsertListMark(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	id1, err := db.InsertNotification(domain.Notification{
		Type: domain.NotifyReminder, Title: "Stretch", Body: "Time to move", CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("InsertNotification() error: %v", err)
	}
	id2, err := db.InsertNotification(domain.Notification{
		Type: domain.NotifyNudge, Title: "Daily check-in", CreatedAt: base.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("InsertNotification() error: %v", err)
	}

	pending, err := db.ListPendingNotifications(10)
	if err != nil {
		t.Fatalf("ListPendingNotifications() error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != id2 {
		t.Errorf("newest first: got id %d, want %d", pending[0].ID, id2)
	}
	if pending[1].Type != domain.NotifyReminder || pending[1].Title != "Stretch" {
		t.Errorf("pending[1] = %+v", pending[1])
	}
	if !pending[1].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", pending[1].CreatedAt, base)
	}

	if err := db.MarkNotificationShown(id1); err != nil {
		t.Fatalf("MarkNotificationShown() error: %v", err)
	}
	pending, _ = db.ListPendingNotifications(10)
	if len(pending) != 1 || pending[0].ID != id2 {
		t.Errorf("pending after mark = %+v", pending)
	}

	if err := db.MarkNotificationShown(id1); err != nil {
		t.Errorf("marking twice: %v", err)
	}
	if err := db.MarkNotificationShown(id2 + 100); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotificationNotFound", err)
	}
}

func TestNotificationCountSince(t *testing.T) {
	db := newTestDB(t)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, n := range []domain.Notification{
		{Type: domain.NotifyNudge, CreatedAt: day.Add(-time.Hour)},  // yesterday
		{Type: domain.NotifyNudge, CreatedAt: day.Add(8 * time.Hour)}, // today
		{Type: domain.NotifyMilestone, CreatedAt: day.Add(9 * time.Hour)},
		{Type: domain.NotifyReminder, CreatedAt: day.Add(10 * time.Hour)},
	} {
		if _, err := db.InsertNotification(n); err != nil {
			t.Fatalf("InsertNotification() error: %v", err)
		}
	}

	tests := []struct {
		name  string
		types []domain.NotificationType
		want  int
	}{
		{"all types", nil, 3},
		{"nudges only", []domain.NotificationType{domain.NotifyNudge}, 1},
		{"nudge and milestone", []domain.NotificationType{domain.NotifyNudge, domain.NotifyMilestone}, 2},
		{"reminder", []domain.NotificationType{domain.NotifyReminder}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.NotificationCountSince(day, tt.types...)
			if err != nil {
				t.Fatalf("NotificationCountSince() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}
