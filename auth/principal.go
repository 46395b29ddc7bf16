package auth

import (
	"slices"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/models"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID       string
	Username string
	Role     models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

// RequireRole fails with Forbidden unless the principal holds one of roles.
func RequireRole(p Principal, roles ...models.Role) error {
	if slices.Contains(roles, p.Role) {
		return nil
	}
	return apperrors.Forbidden("You don't have access | username %s", p.Username)
}

// RequireSelfOrAdmin lets a user act on their own record and admins on any record.
func RequireSelfOrAdmin(p Principal, userID string) error {
	if p.IsAdmin() || p.ID == userID {
		return nil
	}
	return apperrors.Forbidden("You can only manage your own account")
}
