// Package auth maps roles to capabilities. Handlers and middleware receive an
// explicit Principal instead of reading loose role strings from the context.
package auth

import "imtr/backend/internal/model"

// Capability a permission checked at the route level
type Capability string

const (
	UsersRead      Capability = "users:read"
	UsersWrite     Capability = "users:write"
	LecturersRead  Capability = "lecturers:read"
	StudentsRead   Capability = "students:read"
	StudentsWrite  Capability = "students:write"
	StudentsReview Capability = "students:approve"
	ProgramsRead   Capability = "programs:read"
	ProgramsWrite  Capability = "programs:write"
	CoursesRead    Capability = "courses:read"
	CoursesWrite   Capability = "courses:write"
	FinanceRead    Capability = "finance:read"
	FinanceWrite   Capability = "finance:write"
	SelfService    Capability = "self"
)

var allCapabilities = []Capability{
	UsersRead, UsersWrite, LecturersRead,
	StudentsRead, StudentsWrite, StudentsReview,
	ProgramsRead, ProgramsWrite, CoursesRead, CoursesWrite,
	FinanceRead, FinanceWrite, SelfService,
}

// roleCapabilities ADMIN holds everything
var roleCapabilities = map[string][]Capability{
	model.RoleAdmin:     allCapabilities,
	model.RoleFinance:   {FinanceRead, FinanceWrite, StudentsRead, ProgramsRead, SelfService},
	model.RoleLecturer:  {CoursesRead, ProgramsRead, StudentsRead, SelfService},
	model.RoleIT:        {UsersRead, UsersWrite, LecturersRead, SelfService},
	model.RoleLibrarian: {StudentsRead, SelfService},
	model.RoleStudent:   {SelfService},
}

// Principal authenticated caller
type Principal struct {
	UserID string
	Role   string
	caps   map[Capability]struct{}
}

// NewPrincipal resolves the capability set of role; unknown roles get none
func NewPrincipal(userID, role string) *Principal {
	caps := make(map[Capability]struct{})
	for _, c := range roleCapabilities[role] {
		caps[c] = struct{}{}
	}
	return &Principal{UserID: userID, Role: role, caps: caps}
}

// Can reports whether the principal holds c
func (p *Principal) Can(c Capability) bool {
	if p == nil {
		return false
	}
	_, ok := p.caps[c]
	return ok
}

// CanAll reports whether the principal holds every capability
func (p *Principal) CanAll(caps ...Capability) bool {
	for _, c := range caps {
		if !p.Can(c) {
			return false
		}
	}
	return true
}

// Capabilities sorted in declaration order, for /auth/me
func (p *Principal) Capabilities() []Capability {
	out := make([]Capability, 0, len(p.caps))
	for _, c := range allCapabilities {
		if p.Can(c) {
			out = append(out, c)
		}
	}
	return out
}
