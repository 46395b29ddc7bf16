package account_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/account"
	"github.com/junaidrashid-git/storefront-api/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *account.Service {
	return account.New(storetest.New(t), auth.NewTokens("test-secret", time.Hour))
}

func input(username string) account.RegisterInput {
	return account.RegisterInput{
		Name:     "Jane",
		Surname:  "Doe",
		Username: username,
		Email:    username + "@example.com",
		Password: "Str0ng!pass",
		Phone:    "55551234",
		Role:     "ADMIN",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	u, err := svc.Register(ctx, nil, input("JaneDoe"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, u.Role, "anonymous callers cannot pick a role")
	assert.Equal(t, "janedoe", u.Username)
	assert.NotEqual(t, "Str0ng!pass", u.PasswordHash)

	_, err = svc.Register(ctx, nil, input("janedoe"))
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	session, err := svc.Login(ctx, "JANEDOE", "Str0ng!pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	p, err := svc.Principal(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, models.RoleClient, p.Role)

	_, err = svc.Login(ctx, "janedoe", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	_, err = svc.Login(ctx, "nobody", "Str0ng!pass")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
}

func TestRegisterRules(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	weak := input("weakling")
	weak.Password = "password"
	_, err := svc.Register(ctx, nil, weak)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	admin := &auth.Principal{ID: "a", Role: models.RoleAdmin}
	u, err := svc.Register(ctx, admin, input("newadmin"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	bad := input("badrole")
	bad.Role = "ROOT"
	_, err = svc.Register(ctx, admin, bad)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestDeletedUserLosesSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	u, err := svc.Register(ctx, nil, input("leaver"))
	require.NoError(t, err)
	session, err := svc.Login(ctx, "leaver", "Str0ng!pass")
	require.NoError(t, err)

	self := auth.Principal{ID: u.ID, Role: models.RoleClient}
	require.NoError(t, svc.DeleteUser(ctx, self, u.ID))

	_, err = svc.Principal(ctx, session.Token)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	_, err = svc.Login(ctx, "leaver", "Str0ng!pass")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))

	admin := auth.Principal{ID: "admin", Role: models.RoleAdmin}
	assert.True(t, apperrors.Is(svc.DeleteUser(ctx, admin, u.ID), apperrors.KindNotFound))

	_, err = svc.Principal(ctx, "garbage")
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
}

func TestUpdateUserAndPassword(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	a, err := svc.Register(ctx, nil, input("alice"))
	require.NoError(t, err)
	b, err := svc.Register(ctx, nil, input("bobby"))
	require.NoError(t, err)
	alice := auth.Principal{ID: a.ID, Username: "alice", Role: models.RoleClient}

	phone := "99990000"
	u, err := svc.UpdateUser(ctx, alice, a.ID, account.UserPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "99990000", u.Phone)
	assert.Equal(t, models.RoleClient, u.Role)

	_, err = svc.UpdateUser(ctx, alice, b.ID, account.UserPatch{Phone: &phone})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	taken := "bobby@example.com"
	_, err = svc.UpdateUser(ctx, alice, a.ID, account.UserPatch{Email: &taken})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))

	err = svc.UpdatePassword(ctx, alice, a.ID, "wrong", "N3w!password")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	err = svc.UpdatePassword(ctx, alice, a.ID, "Str0ng!pass", "weak")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	require.NoError(t, svc.UpdatePassword(ctx, alice, a.ID, "Str0ng!pass", "N3w!password"))

	_, err = svc.Login(ctx, "alice", "N3w!password")
	assert.NoError(t, err)
}

func TestOverlongPasswordIsValidationError(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	long := "Str0ng!" + strings.Repeat("a", 80)

	in := input("longpass")
	in.Password = long
	_, err := svc.Register(ctx, nil, in)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	u, err := svc.Register(ctx, nil, input("shortpass"))
	require.NoError(t, err)
	self := auth.Principal{ID: u.ID, Role: models.RoleClient}
	err = svc.UpdatePassword(ctx, self, u.ID, "Str0ng!pass", long)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.Login(ctx, "shortpass", "Str0ng!pass")
	assert.NoError(t, err, "old password still valid")
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	created, err := svc.SeedAdmin(ctx, "root", "R00t!pass", "")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.SeedAdmin(ctx, "root", "R00t!pass", "")
	require.NoError(t, err)
	assert.False(t, created)

	session, err := svc.Login(ctx, "root", "R00t!pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, session.User.Role)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
