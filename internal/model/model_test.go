package model

import "testing"

func TestAuthClaims_HasRole(t *testing.T) {
	testCases := []struct {
		name  string
		role  string
		check string
		want  bool
	}{
		{name: "exact role", role: RoleUser, check: RoleUser, want: true},
		{name: "user is not admin", role: RoleUser, check: RoleAdmin, want: false},
		{name: "admin implies user", role: RoleAdmin, check: RoleUser, want: true},
		{name: "empty role", role: "", check: RoleUser, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &AuthClaims{Role: tc.role}
			if got := c.HasRole(tc.check); got != tc.want {
				t.Errorf("HasRole(%q) = %v, want %v", tc.check, got, tc.want)
			}
		})
	}
}

func TestNewPagination(t *testing.T) {
	testCases := []struct {
		total, page, size int
		wantPages         int
	}{
		{total: 25, page: 1, size: 10, wantPages: 3},
		{total: 20, page: 2, size: 10, wantPages: 2},
		{total: 0, page: 1, size: 10, wantPages: 0},
		{total: 1, page: 1, size: 100, wantPages: 1},
	}

	for _, tc := range testCases {
		p := NewPagination(tc.total, tc.page, tc.size)
		if p.TotalPages != tc.wantPages {
			t.Errorf("NewPagination(%d, %d, %d).TotalPages = %d, want %d",
				tc.total, tc.page, tc.size, p.TotalPages, tc.wantPages)
		}
		if p.Total != tc.total || p.Page != tc.page || p.PageSize != tc.size {
			t.Errorf("NewPagination(%d, %d, %d) = %+v", tc.total, tc.page, tc.size, p)
		}
	}
}

func TestIsValidPlanAndRole(t *testing.T) {
	for _, p := range []string{PlanFree, PlanPro, PlanEnterprise} {
		if !IsValidPlan(p) {
			t.Errorf("expected plan %q to be valid", p)
		}
	}
	if IsValidPlan("gold") {
		t.Error("expected unknown plan to be invalid")
	}
	if !IsValidRole(RoleAdmin) || IsValidRole("owner") {
		t.Error("unexpected role validation result")
	}
}

func TestTaskUpdate_IsEmpty(t *testing.T) {
	if !(TaskUpdate{}).IsEmpty() {
		t.Error("expected zero update to be empty")
	}
	status := TaskStatusCompleted
	if (TaskUpdate{Status: &status}).IsEmpty() {
		t.Error("expected update with status to be non-empty")
	}
}
