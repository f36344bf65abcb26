package engagement

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/domain"
)

// ReminderService manages recurring weekday + time reminders and fires them
// on tick. A reminder fires at most once per (day, time) slot; minutes the
// tick never sees are not replayed. Not safe for concurrent use.
type ReminderService struct {
	set      domain.ReminderSet
	entity   entity[domain.ReminderSet]
	notifier domain.Notifier
	policy   *bluemonday.Policy
	log      *zap.Logger
}

// NewReminderService creates a reminder service.
func NewReminderService(store domain.StateStore, notifier domain.Notifier, log *zap.Logger) *ReminderService {
	return &ReminderService{
		entity:   entity[domain.ReminderSet]{store: store, key: keyReminders},
		notifier: notifier,
		policy:   bluemonday.StrictPolicy(),
		log:      log,
	}
}

// Load reads the persisted reminder set.
func (r *ReminderService) Load() error {
	set, err := r.entity.load(func() domain.ReminderSet { return domain.ReminderSet{NextID: 1} })
	if err != nil {
		return err
	}
	if set.NextID < 1 {
		set.NextID = 1
	}
	r.set = set
	return nil
}

// List returns all reminders ordered by ID.
func (r *ReminderService) List() []domain.Reminder {
	return r.set.Clone().Reminders
}

// Save creates the reminder when ID is 0, otherwise updates the existing one.
// Invalid input fails with ErrInvalidReminder and nothing is persisted.
func (r *ReminderService) Save(rem domain.Reminder) (domain.Reminder, error) {
	clean, err := r.normalize(rem)
	if err != nil {
		return domain.Reminder{}, err
	}

	next := r.set.Clone()
	if clean.ID == 0 {
		clean.ID = next.NextID
		next.NextID++
		next.Reminders = append(next.Reminders, clean)
	} else {
		i := indexOfReminder(next.Reminders, clean.ID)
		if i < 0 {
			return domain.Reminder{}, fmt.Errorf("reminder %d: %w", clean.ID, domain.ErrReminderNotFound)
		}
		// Editing keeps the duplicate-fire guard for the current slot.
		clean.LastTriggeredKey = next.Reminders[i].LastTriggeredKey
		next.Reminders[i] = clean
	}

	if err := r.entity.save(next); err != nil {
		return domain.Reminder{}, err
	}
	r.set = next
	r.log.Info("reminder saved", zap.Int64("id", clean.ID), zap.String("time", clean.Time))
	return clean, nil
}

// Delete removes a reminder.
func (r *ReminderService) Delete(id int64) error {
	next := r.set.Clone()
	i := indexOfReminder(next.Reminders, id)
	if i < 0 {
		return fmt.Errorf("reminder %d: %w", id, domain.ErrReminderNotFound)
	}
	next.Reminders = slices.Delete(next.Reminders, i, i+1)

	if err := r.entity.save(next); err != nil {
		return err
	}
	r.set = next
	r.log.Info("reminder deleted", zap.Int64("id", id))
	return nil
}

// Toggle flips enabled ⇄ disabled and returns the updated reminder.
func (r *ReminderService) Toggle(id int64) (domain.Reminder, error) {
	next := r.set.Clone()
	i := indexOfReminder(next.Reminders, id)
	if i < 0 {
		return domain.Reminder{}, fmt.Errorf("reminder %d: %w", id, domain.ErrReminderNotFound)
	}
	next.Reminders[i].Enabled = !next.Reminders[i].Enabled

	if err := r.entity.save(next); err != nil {
		return domain.Reminder{}, err
	}
	r.set = next
	return next.Reminders[i], nil
}

// Tick fires every enabled reminder scheduled for now's weekday and HH:MM
// whose slot has not fired yet. The slot key is persisted before the
// notification goes out, so a failed save skips the fire rather than risk a
// duplicate. Returns the reminders that fired.
func (r *ReminderService) Tick(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	hhmm := now.Format(domain.TimeLayout)
	key := DayKey(now) + " " + hhmm

	var fired []domain.Reminder
	for _, rem := range r.set.Reminders {
		if !rem.Enabled || !rem.OnDay(now.Weekday()) || rem.Time != hhmm {
			continue
		}
		// Re-read the live entry: the set may have changed since the loop began.
		i := indexOfReminder(r.set.Reminders, rem.ID)
		if i < 0 || r.set.Reminders[i].LastTriggeredKey == key {
			continue
		}

		next := r.set.Clone()
		next.Reminders[i].LastTriggeredKey = key
		if err := r.entity.save(next); err != nil {
			return fired, err
		}
		r.set = next

		current := next.Reminders[i]
		fired = append(fired, current)
		r.dispatch(ctx, current, now)
	}
	return fired, nil
}

func (r *ReminderService) dispatch(ctx context.Context, rem domain.Reminder, now time.Time) {
	n := domain.Notification{
		Type:      domain.NotifyReminder,
		Title:     rem.Title,
		Body:      rem.Description,
		CreatedAt: now,
	}
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, n); err != nil {
		r.log.Warn("reminder notification failed", zap.Int64("id", rem.ID), zap.Error(err))
		return
	}
	r.log.Info("reminder fired", zap.Int64("id", rem.ID), zap.String("title", rem.Title))
}

// plainText strips markup. The sanitizer escapes what it keeps, so the result
// is unescaped again; reminder text is stored and sent as plain text.
func (r *ReminderService) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

// normalize validates and canonicalizes user input.
func (r *ReminderService) normalize(rem domain.Reminder) (domain.Reminder, error) {
	rem.Title = r.plainText(rem.Title)
	rem.Description = r.plainText(rem.Description)
	if rem.Title == "" {
		return rem, fmt.Errorf("%w: title is required", domain.ErrInvalidReminder)
	}

	if len(rem.Days) == 0 {
		return rem, fmt.Errorf("%w: at least one day is required", domain.ErrInvalidReminder)
	}
	days := slices.Clone(rem.Days)
	for _, d := range days {
		if d < 0 || d > 6 {
			return rem, fmt.Errorf("%w: day %d outside 0-6", domain.ErrInvalidReminder, d)
		}
	}
	slices.Sort(days)
	rem.Days = slices.Compact(days)

	t, err := time.Parse(domain.TimeLayout, strings.TrimSpace(rem.Time))
	if err != nil {
		return rem, fmt.Errorf("%w: time %q is not HH:MM", domain.ErrInvalidReminder, rem.Time)
	}
	rem.Time = t.Format(domain.TimeLayout)
	rem.LastTriggeredKey = ""
	return rem, nil
}

func indexOfReminder(rs []domain.Reminder, id int64) int {
	return slices.IndexFunc(rs, func(r domain.Reminder) bool { return r.ID == id })
}
