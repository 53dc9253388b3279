package memstore

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// Notifications is the in-memory notification store.
type Notifications struct {
	s *Store
}

// Send writes the notification and its read rows, undoing every write if a
// step fails.
func (r *Notifications) Send(_ context.Context, n *repository.Notification, target repository.Target) (*repository.SendResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	payload, err := json.Marshal(target.Payload())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to encode target")
	}
	switch target.Type {
	case repository.TargetAll, repository.TargetRole, repository.TargetBranch,
		repository.TargetRoleInBranch, repository.TargetEmployee:
	default:
		return nil, errors.InvalidInput("targetType", "invalid target type")
	}

	row := *n
	row.ID = r.s.nextID("notifications")
	row.TargetType = target.Type
	row.TargetID = payload
	row.CreatedAt = r.s.now()
	r.s.notifications[row.ID] = &row

	mark := len(r.s.reads)
	rollback := func() {
		r.s.reads = r.s.reads[:mark]
		delete(r.s.notifications, row.ID)
	}

	ids := make([]int64, 0, len(r.s.employees))
	for id, e := range r.s.employees {
		if target.Matches(e) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for i, id := range ids {
		if r.s.fanOutFailAfter >= 0 && i == r.s.fanOutFailAfter {
			r.s.fanOutFailAfter = -1
			rollback()
			return nil, errors.New(errors.ErrCodeInternal, "failed to fan out notification")
		}
		r.s.reads = append(r.s.reads, &notificationRead{notificationID: row.ID, employeeID: id})
	}

	*n = row
	return &repository.SendResult{
		NotificationID: row.ID,
		RecipientCount: len(ids),
		Recipients:     ids,
	}, nil
}

func (r *Notifications) ListForEmployee(_ context.Context, employeeID int64) ([]*repository.EmployeeNotification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*repository.EmployeeNotification, 0)
	for _, rd := range r.s.reads {
		if rd.employeeID != employeeID {
			continue
		}
		n := r.s.notifications[rd.notificationID]
		en := &repository.EmployeeNotification{Notification: *n, ReadAt: rd.readAt}
		if n.SenderID != nil {
			if sender, ok := r.s.employees[*n.SenderID]; ok {
				name := sender.Name
				en.SenderName = &name
			}
		}
		out = append(out, en)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Notifications) MarkRead(_ context.Context, notificationID, employeeID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rd := range r.s.reads {
		if rd.notificationID == notificationID && rd.employeeID == employeeID {
			if rd.readAt == nil {
				now := r.s.now()
				rd.readAt = &now
			}
			return nil
		}
	}
	return errors.NotFound("notification", notificationID)
}

func (r *Notifications) UnreadCount(_ context.Context, employeeID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, rd := range r.s.reads {
		if rd.employeeID == employeeID && rd.readAt == nil {
			n++
		}
	}
	return n, nil
}
