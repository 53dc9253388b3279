package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pesio-ai/be-dealer-workflow/internal/auth"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/logger"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// NotificationService authors notifications, fans them out and tracks read
// state.
type NotificationService struct {
	notifications NotificationStore
	publisher     NotificationPublisher
	log           *logger.Logger
}

// NewNotificationService creates a new notification service. publisher may
// be nil.
func NewNotificationService(notifications NotificationStore, publisher NotificationPublisher, log *logger.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, publisher: publisher, log: log}
}

// SendRequest represents a send notification request
type SendRequest struct {
	Title      string
	Message    string
	TargetType string
	TargetID   json.RawMessage
}

// Send creates the notification and its recipient rows atomically, then
// pushes it to connected recipients.
func (s *NotificationService) Send(ctx context.Context, actor auth.Principal, req *SendRequest) (*repository.SendResult, error) {
	title := strings.TrimSpace(req.Title)
	message := strings.TrimSpace(req.Message)
	if title == "" || message == "" {
		return nil, errors.InvalidInput("notification", "title and message are required")
	}
	target, err := repository.ParseTarget(req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}

	sender := actor.ID
	n := &repository.Notification{Title: title, Message: message, SenderID: &sender}
	res, err := s.notifications.Send(ctx, n, target)
	if err != nil {
		s.log.Error().Err(err).
			Str("target_type", string(target.Type)).
			Msg("failed to send notification")
		return nil, err
	}

	s.log.Info().
		Int64("notification_id", res.NotificationID).
		Str("target_type", string(target.Type)).
		Int("recipients", res.RecipientCount).
		Msg("notification sent")

	if s.publisher != nil {
		s.publisher.PublishNotification(ctx, n, res.Recipients)
	}
	return res, nil
}

// ListForEmployee returns an employee's notifications. Only the employee and
// admins may read them.
func (s *NotificationService) ListForEmployee(ctx context.Context, actor auth.Principal, employeeID int64) ([]*repository.EmployeeNotification, error) {
	if err := canRead(actor, employeeID); err != nil {
		return nil, err
	}
	return s.notifications.ListForEmployee(ctx, employeeID)
}

// UnreadCount counts an employee's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, actor auth.Principal, employeeID int64) (int64, error) {
	if err := canRead(actor, employeeID); err != nil {
		return 0, err
	}
	return s.notifications.UnreadCount(ctx, employeeID)
}

// MarkRead marks the caller's own copy of a notification read.
func (s *NotificationService) MarkRead(ctx context.Context, actor auth.Principal, notificationID int64) error {
	return s.notifications.MarkRead(ctx, notificationID, actor.ID)
}

func canRead(actor auth.Principal, employeeID int64) error {
	if actor.Role != repository.RoleAdmin && actor.ID != employeeID {
		return errors.Forbidden("access denied")
	}
	return nil
}
