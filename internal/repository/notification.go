package repository

import (
	"encoding/json"
	"time"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// TargetType selects how a notification's recipients are resolved.
type TargetType string

const (
	TargetAll          TargetType = "all"
	TargetRole         TargetType = "role"
	TargetBranch       TargetType = "branch"
	TargetRoleInBranch TargetType = "role_in_branch"
	TargetEmployee     TargetType = "employee"
)

// Target is a resolved recipient selector. Only the fields relevant to Type
// are set.
type Target struct {
	Type       TargetType
	Role       Role
	BranchID   int64
	EmployeeID int64
}

type roleInBranch struct {
	Role     Role  `json:"role"`
	BranchID int64 `json:"branch_id"`
}

// ParseTarget decodes the polymorphic target id for targetType.
func ParseTarget(targetType string, raw json.RawMessage) (Target, error) {
	t := Target{Type: TargetType(targetType)}
	switch t.Type {
	case TargetAll:
		return t, nil
	case TargetRole:
		if err := json.Unmarshal(raw, &t.Role); err != nil || !t.Role.Valid() {
			return t, errors.InvalidInput("targetId", "targetId must be a valid role")
		}
	case TargetBranch:
		if err := json.Unmarshal(raw, &t.BranchID); err != nil || t.BranchID <= 0 {
			return t, errors.InvalidInput("targetId", "targetId must be a branch id")
		}
	case TargetEmployee:
		if err := json.Unmarshal(raw, &t.EmployeeID); err != nil || t.EmployeeID <= 0 {
			return t, errors.InvalidInput("targetId", "targetId must be an employee id")
		}
	case TargetRoleInBranch:
		var rb roleInBranch
		if err := json.Unmarshal(raw, &rb); err != nil || !rb.Role.Valid() || rb.BranchID <= 0 {
			return t, errors.InvalidInput("targetId", "targetId must be {role, branch_id}")
		}
		t.Role, t.BranchID = rb.Role, rb.BranchID
	default:
		return t, errors.InvalidInput("targetType", "invalid target type")
	}
	return t, nil
}

// Payload is the value persisted as target_id.
func (t Target) Payload() any {
	switch t.Type {
	case TargetRole:
		return t.Role
	case TargetBranch:
		return t.BranchID
	case TargetEmployee:
		return t.EmployeeID
	case TargetRoleInBranch:
		return roleInBranch{Role: t.Role, BranchID: t.BranchID}
	}
	return nil
}

// Matches reports whether e is a recipient of t.
func (t Target) Matches(e *Employee) bool {
	inBranch := e.BranchID != nil && *e.BranchID == t.BranchID
	switch t.Type {
	case TargetAll:
		return true
	case TargetRole:
		return e.Role == t.Role
	case TargetBranch:
		return inBranch
	case TargetRoleInBranch:
		return e.Role == t.Role && inBranch
	case TargetEmployee:
		return e.ID == t.EmployeeID
	}
	return false
}

// Notification is an admin-authored message.
type Notification struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Message    string          `json:"message"`
	SenderID   *int64          `json:"sender_id"`
	TargetType TargetType      `json:"target_type"`
	TargetID   json.RawMessage `json:"target_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// EmployeeNotification is a notification as seen by one recipient.
type EmployeeNotification struct {
	Notification
	SenderName *string    `json:"sender_name"`
	ReadAt     *time.Time `json:"read_at"`
}

// SendResult reports a committed fan-out.
type SendResult struct {
	NotificationID int64   `json:"notificationId"`
	RecipientCount int     `json:"recipientCount"`
	Recipients     []int64 `json:"-"`
}
