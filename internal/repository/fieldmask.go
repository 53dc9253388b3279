package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

// MaskOp is how a masked column is written.
type MaskOp int

const (
	// MaskSet replaces the stored value.
	MaskSet MaskOp = iota
	// MaskClear writes NULL.
	MaskClear
	// MaskAdd increments the stored value (NULL counts as zero).
	MaskAdd
)

// MaskField is one (column, value) pair of a FieldMask.
type MaskField struct {
	Column string
	Value  any
	Op     MaskOp
}

// FieldMask is an ordered list of column writes. Set ignores values that were
// not provided, so absent input never overwrites a stored value. Values are
// always sent as query parameters; only column names reach the query text.
type FieldMask struct {
	fields []MaskField
}

// NewFieldMask returns an empty mask.
func NewFieldMask() *FieldMask {
	return &FieldMask{}
}

// Set writes value to column when value is provided. Nil pointers, blank
// strings, empty byte slices and invalid NullDecimals are not provided.
func (m *FieldMask) Set(column string, value any) *FieldMask {
	v, ok := normalize(value)
	if !ok {
		return m
	}
	m.put(MaskField{Column: column, Value: v, Op: MaskSet})
	return m
}

// Clear writes NULL to column.
func (m *FieldMask) Clear(column string) *FieldMask {
	m.put(MaskField{Column: column, Op: MaskClear})
	return m
}

// Add increments column by delta.
func (m *FieldMask) Add(column string, delta decimal.Decimal) *FieldMask {
	m.put(MaskField{Column: column, Value: delta, Op: MaskAdd})
	return m
}

func (m *FieldMask) put(f MaskField) {
	for i := range m.fields {
		if m.fields[i].Column == f.Column {
			m.fields[i] = f
			return
		}
	}
	m.fields = append(m.fields, f)
}

// Fields returns the mask entries in insertion order.
func (m *FieldMask) Fields() []MaskField {
	if m == nil {
		return nil
	}
	out := make([]MaskField, len(m.fields))
	copy(out, m.fields)
	return out
}

// Has reports whether column is written by the mask.
func (m *FieldMask) Has(column string) bool {
	_, ok := m.Get(column)
	return ok
}

// Get returns the entry for column.
func (m *FieldMask) Get(column string) (MaskField, bool) {
	if m == nil {
		return MaskField{}, false
	}
	for _, f := range m.fields {
		if f.Column == column {
			return f, true
		}
	}
	return MaskField{}, false
}

// Empty reports whether the mask writes nothing.
func (m *FieldMask) Empty() bool {
	return m == nil || len(m.fields) == 0
}

// Validate rejects columns outside allowed.
func (m *FieldMask) Validate(allowed map[string]bool) error {
	for _, f := range m.Fields() {
		if !allowed[f.Column] {
			return errors.New(errors.ErrCodeInternal, fmt.Sprintf("column %q is not writable", f.Column))
		}
	}
	return nil
}

// setClause renders "col = $n, ..." and returns the placeholder bound for each
// MaskSet or MaskAdd column.
func (m *FieldMask) setClause(a *args) (string, map[string]string) {
	parts := make([]string, 0, len(m.fields))
	placeholders := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		switch f.Op {
		case MaskClear:
			parts = append(parts, fmt.Sprintf("%s = NULL", f.Column))
		case MaskAdd:
			ph := a.add(f.Value)
			placeholders[f.Column] = ph
			parts = append(parts, fmt.Sprintf("%s = COALESCE(%s, 0) + %s", f.Column, f.Column, ph))
		default:
			ph := a.add(f.Value)
			placeholders[f.Column] = ph
			parts = append(parts, fmt.Sprintf("%s = %s", f.Column, ph))
		}
	}
	return strings.Join(parts, ", "), placeholders
}

// normalize dereferences optional inputs and reports whether a value was
// provided.
func normalize(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case *string:
		if v == nil {
			return nil, false
		}
		return normalize(*v)
	case []byte:
		return v, len(v) > 0
	case *int64:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *bool:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *time.Time:
		if v == nil {
			return nil, false
		}
		return *v, true
	case decimal.NullDecimal:
		if !v.Valid {
			return nil, false
		}
		return v.Decimal, true
	case *decimal.Decimal:
		if v == nil {
			return nil, false
		}
		return *v, true
	case Status:
		return string(v), v != ""
	default:
		return v, true
	}
}
