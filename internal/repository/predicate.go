package repository

import (
	"fmt"
	"strings"
)

// Predicate is the state/ownership condition a customer row must satisfy for a
// conditional read or write. Nil fields are unconstrained. The condition is
// evaluated by the database at write time, so check and act are one step.
type Predicate struct {
	CreatedBy        *int64
	Status           *Status
	StatusNot        *Status
	SalesVerified    *bool
	AccountsVerified *bool
	RTOVerified      *bool
	ChassisNumber    *string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// OwnedBy matches rows created by the given sales employee.
func OwnedBy(employeeID int64) Predicate {
	return Predicate{CreatedBy: &employeeID}
}

// Matches evaluates the predicate against an in-memory row.
func (p Predicate) Matches(c *Customer) bool {
	if p.CreatedBy != nil && c.CreatedBy != *p.CreatedBy {
		return false
	}
	if p.Status != nil && c.Status != *p.Status {
		return false
	}
	if p.StatusNot != nil && c.Status == *p.StatusNot {
		return false
	}
	if p.SalesVerified != nil && c.SalesVerified != *p.SalesVerified {
		return false
	}
	if p.AccountsVerified != nil && c.AccountsVerified != *p.AccountsVerified {
		return false
	}
	if p.RTOVerified != nil && c.RTOVerified != *p.RTOVerified {
		return false
	}
	if p.ChassisNumber != nil && (c.ChassisNumber == nil || *c.ChassisNumber != *p.ChassisNumber) {
		return false
	}
	return true
}

// sql renders the predicate as "AND ..." conditions. qualifier, when set,
// prefixes every column (e.g. "c").
func (p Predicate) sql(a *args, qualifier string) string {
	col := func(name string) string {
		if qualifier == "" {
			return name
		}
		return qualifier + "." + name
	}

	var b strings.Builder
	if p.CreatedBy != nil {
		fmt.Fprintf(&b, " AND %s = %s", col("created_by"), a.add(*p.CreatedBy))
	}
	if p.Status != nil {
		fmt.Fprintf(&b, " AND %s = %s", col(ColStatus), a.add(string(*p.Status)))
	}
	if p.StatusNot != nil {
		fmt.Fprintf(&b, " AND %s <> %s", col(ColStatus), a.add(string(*p.StatusNot)))
	}
	if p.SalesVerified != nil {
		fmt.Fprintf(&b, " AND %s = %s", col(ColSalesVerified), a.add(*p.SalesVerified))
	}
	if p.AccountsVerified != nil {
		fmt.Fprintf(&b, " AND %s = %s", col(ColAccountsVerified), a.add(*p.AccountsVerified))
	}
	if p.RTOVerified != nil {
		fmt.Fprintf(&b, " AND %s = %s", col(ColRTOVerified), a.add(*p.RTOVerified))
	}
	if p.ChassisNumber != nil {
		fmt.Fprintf(&b, " AND %s = %s", col(ColChassisNumber), a.add(*p.ChassisNumber))
	}
	return b.String()
}

// args collects positional query parameters.
type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}
