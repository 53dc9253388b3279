package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-dealer-workflow/internal/database"
	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

const employeeColumns = `id, name, email, phone, branch_id, role, password_hash, status, created_at, updated_at`

// EmployeeRepository handles employee data operations
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts an employee. PasswordHash must already be hashed.
func (r *EmployeeRepository) Create(ctx context.Context, e *Employee) error {
	query := `
		INSERT INTO employees (name, email, phone, branch_id, role, password_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + employeeColumns

	created, err := scanEmployee(r.db.QueryRow(ctx, query,
		e.Name,
		e.Email,
		e.Phone,
		e.BranchID,
		string(e.Role),
		e.PasswordHash,
		e.Status,
	))
	if err != nil {
		return wrapPgError(err, "failed to create employee")
	}
	*e = *created
	return nil
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("employee", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get employee")
	}
	return e, nil
}

// GetByEmail retrieves an employee by login email.
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE lower(email) = lower($1)`, email))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("employee", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get employee")
	}
	return e, nil
}

// List retrieves employees matching filter, newest first.
func (r *EmployeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]*Employee, error) {
	a := &args{}
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE TRUE`
	if filter.Role != nil {
		query += " AND role = " + a.add(string(*filter.Role))
	}
	if filter.BranchID != nil {
		query += " AND branch_id = " + a.add(*filter.BranchID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, a.values...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list employees")
	}
	defer rows.Close()

	employees := make([]*Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan employee")
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list employees")
	}
	return employees, nil
}

// Update applies a field mask to one employee.
func (r *EmployeeRepository) Update(ctx context.Context, id int64, mask *FieldMask) (*Employee, error) {
	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "no fields to update")
	}
	if err := mask.Validate(employeeWritableColumns); err != nil {
		return nil, err
	}

	a := &args{}
	idPh := a.add(id)
	set, _ := mask.setClause(a)
	query := "UPDATE employees SET " + set + ", updated_at = NOW() WHERE id = " + idPh + " RETURNING " + employeeColumns

	e, err := scanEmployee(r.db.QueryRow(ctx, query, a.values...))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("employee", id)
	}
	if err != nil {
		return nil, wrapPgError(err, "failed to update employee")
	}
	return e, nil
}

// Delete removes an employee. Rows still referenced by customers or bookings
// are protected by foreign keys and surface as invalid input.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return wrapPgError(err, "failed to delete employee")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("employee", id)
	}
	return nil
}

func scanEmployee(row rowScanner) (*Employee, error) {
	e := &Employee{}
	var role string
	err := row.Scan(
		&e.ID,
		&e.Name,
		&e.Email,
		&e.Phone,
		&e.BranchID,
		&role,
		&e.PasswordHash,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Role = Role(role)
	return e, nil
}
