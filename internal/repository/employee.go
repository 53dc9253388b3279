package repository

import "time"

// Role is an employee role.
type Role string

const (
	RoleSales    Role = "sales"
	RoleAccounts Role = "accounts"
	RoleRTO      Role = "rto"
	RoleAdmin    Role = "admin"
	RoleService  Role = "service"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSales, RoleAccounts, RoleRTO, RoleAdmin, RoleService:
		return true
	}
	return false
}

const (
	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

// Employee columns writable through a FieldMask.
const (
	ColEmployeeName     = "name"
	ColEmployeeEmail    = "email"
	ColEmployeePhone    = "phone"
	ColEmployeeBranchID = "branch_id"
	ColEmployeeRole     = "role"
	ColEmployeePassword = "password_hash"
	ColEmployeeStatus   = "status"
)

var employeeWritableColumns = map[string]bool{
	ColEmployeeName: true, ColEmployeeEmail: true, ColEmployeePhone: true,
	ColEmployeeBranchID: true, ColEmployeeRole: true, ColEmployeePassword: true,
	ColEmployeeStatus: true,
}

// Employee is a dealership staff member.
type Employee struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	BranchID     *int64    `json:"branch_id"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EmployeeFilter narrows employee listings. Nil fields are unconstrained.
type EmployeeFilter struct {
	Role     *Role
	BranchID *int64
}

// Matches evaluates the filter against an in-memory row.
func (f EmployeeFilter) Matches(e *Employee) bool {
	if f.Role != nil && e.Role != *f.Role {
		return false
	}
	if f.BranchID != nil && (e.BranchID == nil || *e.BranchID != *f.BranchID) {
		return false
	}
	return true
}

// Branch is a dealership location.
type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
