package client

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

type recordingHub struct {
	online map[int64]bool
	pushed []int64
}

func (h *recordingHub) Notify(employeeID int64, event string, payload any) int {
	if event != EventNotificationNew {
		return 0
	}
	if _, ok := payload.(*NotificationEvent); !ok {
		return 0
	}
	h.pushed = append(h.pushed, employeeID)
	if h.online[employeeID] {
		return 1
	}
	return 0
}

func TestPublishNotificationPushesEveryRecipient(t *testing.T) {
	hub := &recordingHub{online: map[int64]bool{2: true}}
	p := NewNotificationPublisher(hub, zerolog.Nop())

	p.PublishNotification(context.Background(), &repository.Notification{ID: 1, Title: "t"}, []int64{1, 2, 3})
	if len(hub.pushed) != 3 {
		t.Fatalf("pushed = %v", hub.pushed)
	}
}

func TestPublishNotificationStopsOnCancelledContext(t *testing.T) {
	hub := &recordingHub{}
	p := NewNotificationPublisher(hub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.PublishNotification(ctx, &repository.Notification{ID: 1}, []int64{1, 2})
	if len(hub.pushed) != 0 {
		t.Fatalf("pushed = %v", hub.pushed)
	}
}

func TestPublishNotificationWithoutHub(t *testing.T) {
	p := NewNotificationPublisher(nil, zerolog.Nop())
	p.PublishNotification(context.Background(), &repository.Notification{ID: 1}, []int64{1})
}
