package models

import "fmt"

// Lifecycle tags whether a record is live or soft-deleted. Deleted records stay in the
// store for referential integrity but are filtered out of every normal query.
type Lifecycle string

const (
	LifecycleActive  Lifecycle = "ACTIVE"
	LifecycleDeleted Lifecycle = "DELETED"
)

func (l Lifecycle) IsActive() bool {
	return l == LifecycleActive
}

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// ParseRole maps a wire value to a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleClient:
		return RoleClient, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}
