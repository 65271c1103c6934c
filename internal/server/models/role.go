package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/affinity/internal/common"
)

// Role is the closed set of user roles.
type Role string

const (
	// RoleMatrixAdmin is the top-level administrator.
	RoleMatrixAdmin Role = "matrix_admin"
	// RoleDataAdmin maintains chemical and material master data.
	RoleDataAdmin Role = "data_admin"
	// RoleRoleAdmin maintains user role assignments.
	RoleRoleAdmin Role = "role_admin"
)

// Roles lists every known role in display order.
func Roles() []Role {
	return []Role{RoleMatrixAdmin, RoleDataAdmin, RoleRoleAdmin}
}

func (r Role) Valid() bool {
	switch r {
	case RoleMatrixAdmin, RoleDataAdmin, RoleRoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts only the canonical spelling (case and surrounding
// spaces are ignored).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, s)
	}
	return r, nil
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, x := range roles {
		if r == x {
			return true
		}
	}
	return false
}
