package shared

// Role is the coarse permission level attached to a user profile.
type Role string

const (
	RoleSuperAdmin Role = "Super Admin"
	RoleAdmin      Role = "Admin"
	RoleUser       Role = "User"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// Elevated reports whether the role may act on records it does not own.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Scope is the filter context every list and mutation runs under. It is
// resolved from the session server-side; request payloads never influence it.
type Scope struct {
	UserID    int64
	Role      Role
	CompanyID *int64
}

// FilterKind selects which predicate a scoped list query applies.
type FilterKind int

const (
	// FilterByCreator restricts to records created by the scope user.
	FilterByCreator FilterKind = iota
	// FilterByCompany restricts to records belonging to the scope company.
	FilterByCompany
	// FilterNone applies no restriction.
	FilterNone
)

// Filter returns the single predicate the scope's role resolves to.
// Admins without a company fall back to their own records.
func (s Scope) Filter() FilterKind {
	switch s.Role {
	case RoleSuperAdmin:
		return FilterNone
	case RoleAdmin:
		if s.CompanyID != nil {
			return FilterByCompany
		}
		return FilterByCreator
	default:
		return FilterByCreator
	}
}

// CanMutate reports whether the scope may modify a record created by createdBy.
func (s Scope) CanMutate(createdBy int64) bool {
	return s.Role.Elevated() || s.UserID == createdBy
}

// EntityKind identifies an entity family for deletion rules.
type EntityKind string

const (
	KindClient    EntityKind = "client"
	KindProduct   EntityKind = "product"
	KindQuotation EntityKind = "quotation"
	KindInvoice   EntityKind = "invoice"
	KindReceipt   EntityKind = "receipt"
	KindStatement EntityKind = "statement"
)

// CanDelete implements the per-entity deletion matrix. Clients and receipts
// are only removable by a Super Admin; the rest require Admin or above.
func (s Scope) CanDelete(kind EntityKind) bool {
	switch kind {
	case KindClient, KindReceipt:
		return s.Role == RoleSuperAdmin
	default:
		return s.Role.Elevated()
	}
}
