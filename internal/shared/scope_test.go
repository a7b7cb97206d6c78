package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestScopeFilter(t *testing.T) {
	cases := []struct {
		name  string
		scope Scope
		want  FilterKind
	}{
		{"user restricted to own records", Scope{UserID: 1, Role: RoleUser, CompanyID: ptr(9)}, FilterByCreator},
		{"admin with company filters by company", Scope{UserID: 1, Role: RoleAdmin, CompanyID: ptr(9)}, FilterByCompany},
		{"admin without company falls back to creator", Scope{UserID: 1, Role: RoleAdmin}, FilterByCreator},
		{"super admin unrestricted", Scope{UserID: 1, Role: RoleSuperAdmin}, FilterNone},
		{"unknown role treated as regular user", Scope{UserID: 1, Role: Role("intern")}, FilterByCreator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.scope.Filter())
		})
	}
}

func TestCanMutate(t *testing.T) {
	owner := Scope{UserID: 7, Role: RoleUser}
	stranger := Scope{UserID: 8, Role: RoleUser}
	admin := Scope{UserID: 9, Role: RoleAdmin}

	assert.True(t, owner.CanMutate(7))
	assert.False(t, stranger.CanMutate(7))
	assert.True(t, admin.CanMutate(7))
	assert.True(t, Scope{UserID: 10, Role: RoleSuperAdmin}.CanMutate(7))
}

func TestCanDeleteMatrix(t *testing.T) {
	user := Scope{Role: RoleUser}
	admin := Scope{Role: RoleAdmin}
	super := Scope{Role: RoleSuperAdmin}

	for _, kind := range []EntityKind{KindClient, KindReceipt} {
		assert.False(t, user.CanDelete(kind), kind)
		assert.False(t, admin.CanDelete(kind), kind)
		assert.True(t, super.CanDelete(kind), kind)
	}
	for _, kind := range []EntityKind{KindQuotation, KindInvoice, KindProduct, KindStatement} {
		assert.False(t, user.CanDelete(kind), kind)
		assert.True(t, admin.CanDelete(kind), kind)
		assert.True(t, super.CanDelete(kind), kind)
	}
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, RoleAdmin.Elevated())
	assert.True(t, RoleSuperAdmin.Elevated())
	assert.False(t, RoleUser.Elevated())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("Owner").Valid())
}
