package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// NotificationRepository stores notifications and their per-recipient read
// ledger.
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// recipientQuery returns the employee selection for a target.
func recipientQuery(t Target, a *args) (string, error) {
	base := "SELECT id FROM employees"
	switch t.Type {
	case TargetAll:
		return base, nil
	case TargetRole:
		return base + " WHERE role = " + a.add(string(t.Role)), nil
	case TargetBranch:
		return base + " WHERE branch_id = " + a.add(t.BranchID), nil
	case TargetRoleInBranch:
		return base + " WHERE role = " + a.add(string(t.Role)) + " AND branch_id = " + a.add(t.BranchID), nil
	case TargetEmployee:
		return base + " WHERE id = " + a.add(t.EmployeeID), nil
	}
	return "", errors.InvalidInput("targetType", "invalid target type")
}

// Send creates the notification and one unread row per resolved recipient in
// a single transaction.
func (r *NotificationRepository) Send(ctx context.Context, n *Notification, target Target) (*SendResult, error) {
	payload, err := json.Marshal(target.Payload())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode target")
	}

	result := &SendResult{}
	err = r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO notifications (title, message, sender_id, target_type, target_id)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			n.Title, n.Message, n.SenderID, string(target.Type), payload,
		).Scan(&n.ID, &n.CreatedAt)
		if err != nil {
			return wrapPgError(err, "failed to create notification")
		}
		n.TargetType = target.Type
		n.TargetID = payload

		a := &args{}
		idPh := a.add(n.ID)
		selectRecipients, err := recipientQuery(target, a)
		if err != nil {
			return err
		}
		query := "INSERT INTO notification_reads (notification_id, employee_id) SELECT " + idPh +
			"::BIGINT, e.id FROM (" + selectRecipients + ") e RETURNING employee_id"

		rows, err := tx.Query(ctx, query, a.values...)
		if err != nil {
			return wrapPgError(err, "failed to fan out notification")
		}
		defer rows.Close()

		recipients := make([]int64, 0)
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to scan recipient")
			}
			recipients = append(recipients, id)
		}
		if err := rows.Err(); err != nil {
			return wrapPgError(err, "failed to fan out notification")
		}

		result.NotificationID = n.ID
		result.Recipients = recipients
		result.RecipientCount = len(recipients)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListForEmployee returns the notifications delivered to an employee, newest
// first.
func (r *NotificationRepository) ListForEmployee(ctx context.Context, employeeID int64) ([]*EmployeeNotification, error) {
	rows, err := r.db.Query(ctx, `
		SELECT n.id, n.title, n.message, n.sender_id, n.target_type, n.target_id, n.created_at,
		       s.name, nr.read_at
		FROM notification_reads nr
		JOIN notifications n ON n.id = nr.notification_id
		LEFT JOIN employees s ON s.id = n.sender_id
		WHERE nr.employee_id = $1
		ORDER BY n.created_at DESC, n.id DESC`,
		employeeID,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list notifications")
	}
	defer rows.Close()

	list := make([]*EmployeeNotification, 0)
	for rows.Next() {
		en := &EmployeeNotification{}
		var targetType string
		err := rows.Scan(
			&en.ID,
			&en.Title,
			&en.Message,
			&en.SenderID,
			&targetType,
			&en.TargetID,
			&en.CreatedAt,
			&en.SenderName,
			&en.ReadAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan notification")
		}
		en.TargetType = TargetType(targetType)
		list = append(list, en)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list notifications")
	}
	return list, nil
}

// MarkRead marks the (notification, employee) row read. Rows of other
// employees are never touched.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, employeeID int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notification_reads SET read_at = COALESCE(read_at, NOW())
		WHERE notification_id = $1 AND employee_id = $2`,
		notificationID, employeeID,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("notification", notificationID)
	}
	return nil
}

// UnreadCount counts an employee's unread notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, employeeID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notification_reads WHERE employee_id = $1 AND read_at IS NULL`,
		employeeID,
	).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count unread notifications")
	}
	return n, nil
}
