// Package account covers registration, login and user management.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/junaidrashid-git/storefront-api/apperrors"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/logging"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/services/catalog"
	"github.com/junaidrashid-git/storefront-api/store"
)

const weakPasswordMessage = "Password must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number and one symbol"

type Service struct {
	store  store.Users
	tokens *auth.Tokens
}

func New(s store.Users, tokens *auth.Tokens) *Service {
	return &Service{store: s, tokens: tokens}
}

type RegisterInput struct {
	Name     string
	Surname  string
	Username string
	Email    string
	Password string
	Phone    string
	Role     string
}

// UserPatch holds the profile fields a user may change. Nil fields are kept.
type UserPatch struct {
	Name    *string
	Surname *string
	Email   *string
	Phone   *string
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"loggedUser"`
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("%s not found", what)
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict("Username or email is already in use")
	default:
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.Internal(err, "Error processing %s", strings.ToLower(what))
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register creates a user. Only an admin caller may choose the role; everyone else
// gets CLIENT.
func (s *Service) Register(ctx context.Context, caller *auth.Principal, in RegisterInput) (*models.User, error) {
	if !auth.StrongPassword(in.Password) {
		return nil, apperrors.Validation(weakPasswordMessage)
	}

	role := models.RoleClient
	if caller != nil && caller.IsAdmin() && in.Role != "" {
		r, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, apperrors.Validation("Invalid role %q", in.Role)
		}
		role = r
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.Internal(err, "Error registering user")
	}
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Surname:      strings.TrimSpace(in.Surname),
		Username:     normalizeUsername(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, translate(err, "User")
	}
	logging.Log(logging.Fields{Service: "account", Step: "register", Status: string(role), UserID: u.ID})
	return u, nil
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.store.FindUserByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.Unauthenticated("Wrong username or password")
	}
	if err != nil {
		return nil, translate(err, "User")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperrors.Unauthenticated("Wrong username or password")
	}
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, apperrors.Internal(err, "Error with login")
	}
	return &Session{Token: token, User: u}, nil
}

// Principal resolves a session token to its active user.
func (s *Service) Principal(ctx context.Context, token string) (auth.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Principal{}, apperrors.Unauthenticated("Invalid token")
	}
	u, err := s.store.FindUser(ctx, claims.UID)
	if errors.Is(err, store.ErrNotFound) {
		return auth.Principal{}, apperrors.Unauthenticated("User not found or inactive")
	}
	if err != nil {
		return auth.Principal{}, translate(err, "User")
	}
	return auth.Principal{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

func (s *Service) Profile(ctx context.Context, p auth.Principal) (*models.User, error) {
	u, err := s.store.FindUser(ctx, p.ID)
	return u, translate(err, "User")
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	return users, translate(err, "Users")
}

func (s *Service) target(ctx context.Context, p auth.Principal, id string) (*models.User, error) {
	id, err := catalog.ParseID("user id", id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireSelfOrAdmin(p, id); err != nil {
		return nil, err
	}
	u, err := s.store.FindUser(ctx, id)
	return u, translate(err, "User")
}

func (s *Service) UpdateUser(ctx context.Context, p auth.Principal, id string, patch UserPatch) (*models.User, error) {
	u, err := s.target(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Surname != nil {
		u.Surname = strings.TrimSpace(*patch.Surname)
	}
	if patch.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		u.Phone = strings.TrimSpace(*patch.Phone)
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, translate(err, "User")
	}
	return u, nil
}

// UpdatePassword requires the current password even for admins.
func (s *Service) UpdatePassword(ctx context.Context, p auth.Principal, id, oldPassword, newPassword string) error {
	u, err := s.target(ctx, p, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, oldPassword) {
		return apperrors.Validation("Old password is incorrect")
	}
	if !auth.StrongPassword(newPassword) {
		return apperrors.Validation(weakPasswordMessage)
	}
	if u.PasswordHash, err = auth.HashPassword(newPassword); err != nil {
		return apperrors.Internal(err, "Error updating password")
	}
	return translate(s.store.UpdateUser(ctx, u), "User")
}

func (s *Service) DeleteUser(ctx context.Context, p auth.Principal, id string) error {
	u, err := s.target(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, u.ID); err != nil {
		return translate(err, "User")
	}
	logging.Log(logging.Fields{Service: "account", Step: "delete_user", Status: "ok", UserID: u.ID, Message: "by " + p.ID})
	return nil
}

// SeedAdmin creates the configured admin account unless that username already exists.
func (s *Service) SeedAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	_, err := s.store.FindUserByUsername(ctx, normalizeUsername(username))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, translate(err, "User")
	}

	if email == "" {
		email = normalizeUsername(username) + "@localhost"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, apperrors.Internal(err, "Error seeding admin")
	}
	u := &models.User{
		Name:         "Admin",
		Surname:      "Admin",
		Username:     normalizeUsername(username),
		Email:        strings.ToLower(email),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return false, translate(err, "User")
	}
	return true, nil
}
