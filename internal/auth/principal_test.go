package auth

import (
	"testing"

	"imtr/backend/internal/model"
)

func TestPrincipal_Can(t *testing.T) {
	tests := []struct {
		role string
		cap  Capability
		want bool
	}{
		{model.RoleAdmin, StudentsReview, true},
		{model.RoleAdmin, FinanceWrite, true},
		{model.RoleFinance, FinanceWrite, true},
		{model.RoleFinance, StudentsRead, true},
		{model.RoleFinance, StudentsReview, false},
		{model.RoleFinance, UsersWrite, false},
		{model.RoleLecturer, CoursesRead, true},
		{model.RoleLecturer, CoursesWrite, false},
		{model.RoleIT, UsersWrite, true},
		{model.RoleIT, FinanceRead, false},
		{model.RoleLibrarian, StudentsRead, true},
		{model.RoleLibrarian, ProgramsRead, false},
		{model.RoleStudent, SelfService, true},
		{model.RoleStudent, StudentsRead, false},
		{"GUEST", SelfService, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+string(tt.cap), func(t *testing.T) {
			p := NewPrincipal("u-1", tt.role)
			if got := p.Can(tt.cap); got != tt.want {
				t.Errorf("Can(%s) = %v, want %v", tt.cap, got, tt.want)
			}
		})
	}
}

func TestPrincipal_NilIsPowerless(t *testing.T) {
	var p *Principal
	if p.Can(SelfService) {
		t.Error("nil principal must hold nothing")
	}
}

func TestPrincipal_Capabilities(t *testing.T) {
	caps := NewPrincipal("u-1", model.RoleLibrarian).Capabilities()
	if len(caps) != 2 || caps[0] != StudentsRead || caps[1] != SelfService {
		t.Errorf("unexpected capabilities: %v", caps)
	}
	if !NewPrincipal("u-2", model.RoleAdmin).CanAll(allCapabilities...) {
		t.Error("admin must hold every capability")
	}
}
