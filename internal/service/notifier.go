package queue_publisher

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/lodge-operations/internal/hub"
	"github.com/iliyamo/lodge-operations/internal/model"
	"github.com/iliyamo/lodge-operations/internal/repository"
)

// Notifier writes notification rows for every admin whose per-type
// toggle allows it and pushes a live copy to each admin's own
// audience.  All failures are logged and swallowed: notification
// delivery is best-effort and must never fail the operation that
// triggered it.
type Notifier struct {
	Admins        *repository.AdminRepo
	Notifications *repository.NotificationRepo
	Hub           *hub.Hub
}

// NewNotifier constructs a Notifier.  All dependencies must be non-nil.
func NewNotifier(admins *repository.AdminRepo, notifications *repository.NotificationRepo, h *hub.Hub) *Notifier {
	if admins == nil || notifications == nil || h == nil {
		panic("nil dependency passed to NewNotifier")
	}
	return &Notifier{Admins: admins, Notifications: notifications, Hub: h}
}

// Notify fans one notification out across all admin accounts.  It is
// intended to run in its own goroutine with a detached context so the
// triggering HTTP response never waits on it.
func (n *Notifier) Notify(notifType, title, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ids, err := n.Admins.ListIDs(ctx)
	if err != nil {
		log.Printf("notifier: list admins failed: %v", err)
		return
	}
	for _, adminID := range ids {
		enabled, err := n.Notifications.Enabled(ctx, adminID, notifType)
		if err != nil {
			log.Printf("notifier: settings lookup failed for admin %d: %v", adminID, err)
			continue
		}
		if !enabled {
			continue
		}
		row := &model.Notification{AdminID: adminID, Type: notifType, Title: title, Body: body}
		if err := n.Notifications.Create(ctx, row); err != nil {
			log.Printf("notifier: create row failed for admin %d: %v", adminID, err)
			continue
		}
		n.Hub.Publish(hub.AdminAudience(adminID), hub.Event{Type: "notification", Data: row})
	}
}
