package users

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	nextID int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), nextID: 100}
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, u User) (int64, error) {
	id := m.nextID
	m.nextID++
	u.ID = id
	m.users[id] = &u
	return id, nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := updates["role"]; ok {
		u.Role = v.(shared.Role)
	}
	if v, ok := updates["onboarded"]; ok {
		u.Onboarded = v.(bool)
	}
	if v, ok := updates["business_name"]; ok {
		s := v.(string)
		u.BusinessName = &s
	}
	if v, ok := updates["is_active"]; ok {
		u.IsActive = v.(bool)
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func superScope() shared.Scope { return shared.Scope{UserID: 1, Role: shared.RoleSuperAdmin} }

func TestCreateHashesPasswordAndGatesRole(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), superScope(), CreateUserRequest{
		Name: "Thandi", Email: "thandi@ledgerline.example", Password: "correct horse", Role: "User",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")))
	assert.True(t, u.IsActive)

	// A plain user cannot create accounts at all.
	_, err = svc.Create(context.Background(), shared.Scope{UserID: 5, Role: shared.RoleUser}, CreateUserRequest{
		Name: "X", Email: "x@ledgerline.example", Password: "password1", Role: "User",
	})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	// Admins may create users but not other admins.
	admin := shared.Scope{UserID: 2, Role: shared.RoleAdmin}
	_, err = svc.Create(context.Background(), admin, CreateUserRequest{
		Name: "Y", Email: "y@ledgerline.example", Password: "password1", Role: "Admin",
	})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	_, err = svc.Create(context.Background(), superScope(), CreateUserRequest{
		Name: "Z", Email: "z@ledgerline.example", Password: "password1", Role: "Owner",
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAdminCreateInheritsCompany(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	company := int64(3)
	admin := shared.Scope{UserID: 2, Role: shared.RoleAdmin, CompanyID: &company}
	u, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Name: "Thandi", Email: "thandi@ledgerline.example", Password: "password1", Role: "User",
	})
	require.NoError(t, err)
	require.NotNil(t, u.CompanyID)
	assert.Equal(t, company, *u.CompanyID)
}

func TestOnboardMarksAccountReady(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), superScope(), CreateUserRequest{
		Name: "Thandi", Email: "thandi@ledgerline.example", Password: "password1", Role: "User",
	})
	require.NoError(t, err)
	assert.False(t, u.Onboarded)

	scope := shared.Scope{UserID: u.ID, Role: shared.RoleUser}
	onboarded, err := svc.Onboard(context.Background(), scope, OnboardRequest{BusinessName: "Thandi Consulting"})
	require.NoError(t, err)
	assert.True(t, onboarded.Onboarded)
	require.NotNil(t, onboarded.BusinessName)
	assert.Equal(t, "Thandi Consulting", *onboarded.BusinessName)
}

func TestRoleChangeRequiresSuperAdmin(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), superScope(), CreateUserRequest{
		Name: "Thandi", Email: "thandi@ledgerline.example", Password: "password1", Role: "User",
	})
	require.NoError(t, err)

	admin := shared.Scope{UserID: 2, Role: shared.RoleAdmin}
	role := "Admin"
	_, err = svc.Update(context.Background(), admin, u.ID, UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, httpx.ErrForbidden)

	promoted, err := svc.Update(context.Background(), superScope(), u.ID, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, shared.RoleAdmin, promoted.Role)
}

func TestDeleteRules(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	u, err := svc.Create(context.Background(), superScope(), CreateUserRequest{
		Name: "Thandi", Email: "thandi@ledgerline.example", Password: "password1", Role: "User",
	})
	require.NoError(t, err)

	admin := shared.Scope{UserID: 2, Role: shared.RoleAdmin}
	assert.ErrorIs(t, svc.Delete(context.Background(), admin, u.ID), httpx.ErrForbidden)

	self := shared.Scope{UserID: u.ID, Role: shared.RoleSuperAdmin}
	assert.ErrorIs(t, svc.Delete(context.Background(), self, u.ID), httpx.ErrValidation)

	assert.NoError(t, svc.Delete(context.Background(), superScope(), u.ID))
}
