package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
	"github.com/pesio-ai/be-dealer-workflow/internal/repository"
)

// Employees is the in-memory employee store.
type Employees struct {
	s *Store
}

func (r *Employees) Create(_ context.Context, e *repository.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkEmployee(0, e); err != nil {
		return err
	}
	now := r.s.now()
	row := *e
	row.ID = r.s.nextID("employees")
	if row.Status == "" {
		row.Status = repository.EmployeeActive
	}
	row.CreatedAt, row.UpdatedAt = now, now
	r.s.employees[row.ID] = &row
	*e = row
	return nil
}

func (r *Employees) GetByID(_ context.Context, id int64) (*repository.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.employees[id]
	if !ok {
		return nil, errors.NotFound("employee", id)
	}
	cp := *e
	return &cp, nil
}

func (r *Employees) GetByEmail(_ context.Context, email string) (*repository.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.employees {
		if strings.EqualFold(e.Email, email) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, errors.NotFound("employee", email)
}

func (r *Employees) List(_ context.Context, filter repository.EmployeeFilter) ([]*repository.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*repository.Employee, 0)
	for _, e := range r.s.employees {
		if filter.Matches(e) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *Employees) Update(_ context.Context, id int64, mask *repository.FieldMask) (*repository.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if mask.Empty() {
		return nil, errors.InvalidInput("fields", "no fields to update")
	}
	current, ok := r.s.employees[id]
	if !ok {
		return nil, errors.NotFound("employee", id)
	}
	next := *current
	for _, f := range mask.Fields() {
		if err := setEmployeeColumn(&next, f); err != nil {
			return nil, err
		}
	}
	if err := r.s.checkEmployee(id, &next); err != nil {
		return nil, err
	}
	next.UpdatedAt = r.s.now()
	r.s.employees[id] = &next
	cp := next
	return &cp, nil
}

func (r *Employees) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[id]; !ok {
		return errors.NotFound("employee", id)
	}
	for _, c := range r.s.customers {
		if c.CreatedBy == id {
			return referenced()
		}
	}
	for _, b := range r.s.bookings {
		if b.ServiceEmployeeID == id {
			return referenced()
		}
	}
	delete(r.s.employees, id)

	reads := r.s.reads[:0]
	for _, rd := range r.s.reads {
		if rd.employeeID != id {
			reads = append(reads, rd)
		}
	}
	r.s.reads = reads
	for _, n := range r.s.notifications {
		if n.SenderID != nil && *n.SenderID == id {
			n.SenderID = nil
		}
	}
	return nil
}

// checkEmployee enforces the unique email, branch reference and enum checks.
func (s *Store) checkEmployee(id int64, e *repository.Employee) error {
	for oid, o := range s.employees {
		if oid != id && strings.EqualFold(o.Email, e.Email) {
			return conflict()
		}
	}
	if e.BranchID != nil {
		if _, ok := s.branches[*e.BranchID]; !ok {
			return referenced()
		}
	}
	if !e.Role.Valid() {
		return checkViolation()
	}
	if e.Status != "" && e.Status != repository.EmployeeActive && e.Status != repository.EmployeeInactive {
		return checkViolation()
	}
	return nil
}

func setEmployeeColumn(e *repository.Employee, f repository.MaskField) error {
	if f.Column == repository.ColEmployeeBranchID {
		if f.Op == repository.MaskClear {
			e.BranchID = nil
			return nil
		}
		v, ok := f.Value.(int64)
		if !ok {
			return badValue(f)
		}
		e.BranchID = &v
		return nil
	}

	v, ok := f.Value.(string)
	if !ok || f.Op != repository.MaskSet {
		return badValue(f)
	}
	switch f.Column {
	case repository.ColEmployeeName:
		e.Name = v
	case repository.ColEmployeeEmail:
		e.Email = v
	case repository.ColEmployeePhone:
		e.Phone = v
	case repository.ColEmployeeRole:
		e.Role = repository.Role(v)
	case repository.ColEmployeePassword:
		e.PasswordHash = v
	case repository.ColEmployeeStatus:
		e.Status = v
	default:
		return errors.New(errors.ErrCodeInternal, fmt.Sprintf("column %q is not writable", f.Column))
	}
	return nil
}

// Branches is the in-memory branch store.
type Branches struct {
	s *Store
}

func (r *Branches) Create(_ context.Context, b *repository.Branch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	b.ID = r.s.nextID("branches")
	b.CreatedAt, b.UpdatedAt = now, now
	cp := *b
	r.s.branches[b.ID] = &cp
	return nil
}

func (r *Branches) GetByID(_ context.Context, id int64) (*repository.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.branches[id]
	if !ok {
		return nil, errors.NotFound("branch", id)
	}
	cp := *b
	return &cp, nil
}

func (r *Branches) List(_ context.Context) ([]*repository.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*repository.Branch, 0, len(r.s.branches))
	for _, b := range r.s.branches {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Branches) Rename(_ context.Context, id int64, name string) (*repository.Branch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.branches[id]
	if !ok {
		return nil, errors.NotFound("branch", id)
	}
	b.Name = name
	b.UpdatedAt = r.s.now()
	cp := *b
	return &cp, nil
}

func (r *Branches) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.branches[id]; !ok {
		return errors.NotFound("branch", id)
	}
	for _, e := range r.s.employees {
		if e.BranchID != nil && *e.BranchID == id {
			return referenced()
		}
	}
	delete(r.s.branches, id)
	return nil
}
