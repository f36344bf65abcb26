package engagement

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/habitloop/habitloop/internal/clock"
	"github.com/habitloop/habitloop/internal/domain"
	"github.com/habitloop/habitloop/internal/infra/metrics"
)

// NotificationLog stores notifications for later display.
// Implemented by infra/sqlite.DB.
type NotificationLog interface {
	InsertNotification(n domain.Notification) (int64, error)
	NotificationCountSince(since time.Time, types ...domain.NotificationType) (int, error)
	ListPendingNotifications(limit int) ([]domain.Notification, error)
	MarkNotificationShown(id int64) error
}

// nudgeTypes are the notification types the policy governs. Reminders the
// user configured always go out.
var nudgeTypes = []domain.NotificationType{
	domain.NotifyNudge,
	domain.NotifyMissedRoutine,
	domain.NotifyMilestone,
}

// NotificationService records notifications and forwards them to the next
// notifier. Nudges are capped per day and held back during quiet hours.
type NotificationService struct {
	log    NotificationLog
	next   domain.Notifier
	policy domain.NotificationPolicy
	clock  clock.Clock
	logger *zap.Logger
}

// NewNotificationService creates a notification service with the given policy.
// next may be nil when notifications are only recorded.
func NewNotificationService(nlog NotificationLog, next domain.Notifier, policy domain.NotificationPolicy, clk clock.Clock, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		log:    nlog,
		next:   next,
		policy: policy,
		clock:  clk,
		logger: logger,
	}
}

// Notify implements domain.Notifier.
func (n *NotificationService) Notify(ctx context.Context, notif domain.Notification) error {
	_, err := n.Create(ctx, notif)
	return err
}

// Create records and forwards a notification if policy allows it.
// Returns the notification ID (0 if suppressed by policy) and any error.
func (n *NotificationService) Create(ctx context.Context, notif domain.Notification) (int64, error) {
	now := n.clock.Now()
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = now
	}

	if isNudge(notif.Type) {
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		count, err := n.log.NotificationCountSince(startOfDay, nudgeTypes...)
		if err != nil {
			return 0, fmt.Errorf("count today: %w", err)
		}
		if count >= n.policy.MaxPerDay {
			metrics.NotificationsSuppressed.WithLabelValues("daily_cap").Inc()
			n.logger.Debug("nudge suppressed", zap.String("reason", "daily_cap"))
			return 0, nil
		}
		if n.isQuietHour(now) {
			metrics.NotificationsSuppressed.WithLabelValues("quiet_hours").Inc()
			n.logger.Debug("nudge suppressed", zap.String("reason", "quiet_hours"))
			return 0, nil
		}
	}

	notif.Shown = false
	id, err := n.log.InsertNotification(notif)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	notif.ID = id
	metrics.NotificationsSent.WithLabelValues(string(notif.Type)).Inc()

	if n.next != nil {
		if err := n.next.Notify(ctx, notif); err != nil {
			return id, fmt.Errorf("forward notification: %w", err)
		}
	}
	return id, nil
}

// Pending returns unshown notifications.
func (n *NotificationService) Pending(limit int) ([]domain.Notification, error) {
	return n.log.ListPendingNotifications(limit)
}

// MarkShown marks a notification as shown.
func (n *NotificationService) MarkShown(id int64) error {
	return n.log.MarkNotificationShown(id)
}

// Policy returns the current notification policy.
func (n *NotificationService) Policy() domain.NotificationPolicy {
	return n.policy
}

// isQuietHour returns true if t falls within quiet hours.
func (n *NotificationService) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(n.policy.QuietStart)
	endHour, endMin := parseHHMM(n.policy.QuietEnd)

	timeMinutes := minuteOfDay(t)
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes == endMinutes {
		return false
	}
	if startMinutes > endMinutes {
		// Wraps midnight: e.g., 22:00 – 08:00
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// NotificationForDecision maps a trigger decision to a nudge notification.
func NotificationForDecision(d domain.TriggerDecision) domain.Notification {
	n := domain.Notification{Type: domain.NotifyNudge, Title: "Daily check-in", Body: d.Message}
	switch d.Kind {
	case domain.TriggerMissedRoutine:
		n.Type = domain.NotifyMissedRoutine
		n.Title = "Keep your routine"
	case domain.TriggerMilestone:
		n.Type = domain.NotifyMilestone
		n.Title = "Milestone ahead"
	}
	return n
}

func isNudge(t domain.NotificationType) bool {
	return slices.Contains(nudgeTypes, t)
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
