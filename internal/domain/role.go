package domain

import (
	"slices"
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole normalizes the role representation once, at the authorization boundary.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleUser:
		return r, nil
	}
	return "", Errorf(ErrForbidden, "unknown role %q", s)
}

func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager
}

// Requester is the already-authorized caller of a booking operation.
type Requester struct {
	UserID         int64
	Role           Role
	ManagedCafeIDs []int64
}

func (r Requester) Manages(cafeID int64) bool {
	return slices.Contains(r.ManagedCafeIDs, cafeID)
}

// CanAccess reports whether the requester may read or mutate b.
func (r Requester) CanAccess(b *Booking) bool {
	switch r.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return b.UserID == r.UserID || r.Manages(b.CafeID)
	case RoleUser:
		return b.UserID == r.UserID
	}
	return false
}
