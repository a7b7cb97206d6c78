package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/users"
)

type mockUserRepo struct {
	byID map[int64]*users.User
}

func (m *mockUserRepo) Get(ctx context.Context, id int64) (*users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, users.ErrNotFound
}

func (m *mockUserRepo) List(ctx context.Context, req users.ListUsersRequest) ([]users.User, int, error) {
	return nil, 0, nil
}
func (m *mockUserRepo) Create(ctx context.Context, u users.User) (int64, error) { return 0, nil }
func (m *mockUserRepo) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	return nil
}
func (m *mockUserRepo) Delete(ctx context.Context, id int64) error { return nil }

type mockSessionRepo struct {
	created map[string]int64
}

func (m *mockSessionRepo) Create(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if m.created == nil {
		m.created = make(map[string]int64)
	}
	m.created[id] = userID
	return nil
}
func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	delete(m.created, id)
	return nil
}
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) { return 0, nil }

func testUser(t *testing.T) *users.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	company := int64(3)
	return &users.User{
		ID:           10,
		Name:         "Thandi",
		Email:        "thandi@ledgerline.example",
		PasswordHash: string(hash),
		Role:         shared.RoleAdmin,
		CompanyID:    &company,
		IsActive:     true,
	}
}

func TestAuthenticate(t *testing.T) {
	u := testUser(t)
	svc := NewService(&mockUserRepo{byID: map[int64]*users.User{u.ID: u}}, &mockSessionRepo{})

	got, err := svc.Authenticate(context.Background(), "thandi@ledgerline.example", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(context.Background(), "thandi@ledgerline.example", "wrong password")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@ledgerline.example", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	u.IsActive = false
	_, err = svc.Authenticate(context.Background(), "thandi@ledgerline.example", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestResolveScope(t *testing.T) {
	u := testUser(t)
	svc := NewService(&mockUserRepo{byID: map[int64]*users.User{u.ID: u}}, &mockSessionRepo{})

	sess := &shared.Session{ID: "s1"}
	sess.SetUser("10")
	scope, ok := svc.ResolveScope(context.Background(), sess)
	require.True(t, ok)
	assert.Equal(t, int64(10), scope.UserID)
	assert.Equal(t, shared.RoleAdmin, scope.Role)
	require.NotNil(t, scope.CompanyID)
	assert.Equal(t, int64(3), *scope.CompanyID)

	_, ok = svc.ResolveScope(context.Background(), nil)
	assert.False(t, ok)

	anon := &shared.Session{ID: "s2"}
	_, ok = svc.ResolveScope(context.Background(), anon)
	assert.False(t, ok)

	stale := &shared.Session{ID: "s3"}
	stale.SetUser("999")
	_, ok = svc.ResolveScope(context.Background(), stale)
	assert.False(t, ok)

	u.IsActive = false
	_, ok = svc.ResolveScope(context.Background(), sess)
	assert.False(t, ok, "deactivated accounts lose their scope immediately")
}
