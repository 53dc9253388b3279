package client

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// EventNotificationNew is pushed to each recipient when a notification is
// committed.
const EventNotificationNew = "notification.new"

// Pusher delivers an event to one employee's live connections and returns
// how many received it.
type Pusher interface {
	Notify(employeeID int64, event string, payload any) int
}

// NotificationPublisher pushes committed notifications to recipients that are
// connected to the realtime hub.
//
// All publish operations are non-fatal: errors are logged but never
// propagated, so a push failure never fails a send.
type NotificationPublisher struct {
	hub Pusher
	log zerolog.Logger
}

// NotificationEvent is the JSON payload of a notification.new event.
type NotificationEvent struct {
	NotificationID int64     `json:"notification_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	SenderID       *int64    `json:"sender_id,omitempty"`
	TargetType     string    `json:"target_type"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewNotificationPublisher creates a publisher backed by the given hub.
func NewNotificationPublisher(hub Pusher, log zerolog.Logger) *NotificationPublisher {
	return &NotificationPublisher{hub: hub, log: log}
}

// PublishNotification pushes n to every connected recipient.
func (p *NotificationPublisher) PublishNotification(ctx context.Context, n *repository.Notification, recipients []int64) {
	if p.hub == nil || len(recipients) == 0 {
		return
	}

	event := &NotificationEvent{
		NotificationID: n.ID,
		Title:          n.Title,
		Message:        n.Message,
		SenderID:       n.SenderID,
		TargetType:     string(n.TargetType),
		CreatedAt:      n.CreatedAt,
	}

	delivered := 0
	for _, id := range recipients {
		if ctx.Err() != nil {
			p.log.Warn().Err(ctx.Err()).
				Int64("notification_id", n.ID).
				Msg("notification: push abandoned (non-fatal)")
			return
		}
		if p.hub.Notify(id, EventNotificationNew, event) > 0 {
			delivered++
		}
	}

	p.log.Debug().
		Int64("notification_id", n.ID).
		Int("recipients", len(recipients)).
		Int("delivered", delivered).
		Msg("notification: event pushed")
}
