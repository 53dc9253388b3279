package repository

import (
	"encoding/json"
	"testing"

	"github.com/pesio-ai/be-dealer-workflow/internal/errors"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		raw     string
		want    Target
		wantErr bool
	}{
		{"all ignores id", "all", `null`, Target{Type: TargetAll}, false},
		{"role", "role", `"rto"`, Target{Type: TargetRole, Role: RoleRTO}, false},
		{"unknown role", "role", `"janitor"`, Target{}, true},
		{"branch", "branch", `4`, Target{Type: TargetBranch, BranchID: 4}, false},
		{"branch as string", "branch", `"4"`, Target{}, true},
		{"employee", "employee", `12`, Target{Type: TargetEmployee, EmployeeID: 12}, false},
		{"role in branch", "role_in_branch", `{"role":"sales","branch_id":2}`, Target{Type: TargetRoleInBranch, Role: RoleSales, BranchID: 2}, false},
		{"role in branch missing branch", "role_in_branch", `{"role":"sales"}`, Target{}, true},
		{"unknown type", "everyone", `null`, Target{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.typ, json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidInput) {
					t.Fatalf("err = %v, want invalid input", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTargetMatches(t *testing.T) {
	branch := int64(2)
	e := &Employee{ID: 5, Role: RoleSales, BranchID: &branch}

	cases := map[Target]bool{
		{Type: TargetAll}:                                        true,
		{Type: TargetRole, Role: RoleSales}:                      true,
		{Type: TargetRole, Role: RoleRTO}:                        false,
		{Type: TargetBranch, BranchID: 2}:                        true,
		{Type: TargetRoleInBranch, Role: RoleSales, BranchID: 3}: false,
		{Type: TargetEmployee, EmployeeID: 5}:                    true,
	}
	for target, want := range cases {
		if got := target.Matches(e); got != want {
			t.Errorf("%+v.Matches = %v, want %v", target, got, want)
		}
	}
}

func TestRecipientQueryParameterizes(t *testing.T) {
	a := &args{}
	a.add(int64(1))
	q, err := recipientQuery(Target{Type: TargetRoleInBranch, Role: RoleSales, BranchID: 9}, a)
	if err != nil {
		t.Fatal(err)
	}
	if q != "SELECT id FROM employees WHERE role = $2 AND branch_id = $3" {
		t.Fatalf("query = %q", q)
	}
	if _, err := recipientQuery(Target{Type: "bogus"}, &args{}); err == nil {
		t.Fatal("expected error")
	}
}
