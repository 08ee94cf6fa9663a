package models

// Role is the staff role stored on a user record.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleContentManager Role = "CONTENT_MANAGER"
	RoleEditor         Role = "EDITOR"
)

// Roles lists every assignable role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleContentManager, RoleEditor}
}

// RoleValues returns the roles as plain strings, in select-field order.
func RoleValues() []string {
	roles := Roles()
	values := make([]string, len(roles))
	for i, r := range roles {
		values[i] = string(r)
	}
	return values
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleContentManager, RoleEditor:
		return true
	}
	return false
}

// Permission names an action guarded by RBAC.
type Permission string

const (
	PermManageUsers      Permission = "users:manage"
	PermManageSessions   Permission = "sessions:manage"
	PermManageContent    Permission = "content:manage"
	PermManageBlog       Permission = "blog:manage"
	PermManageFAQ        Permission = "faq:manage"
	PermManageGallery    Permission = "gallery:manage"
	PermManageBookings   Permission = "bookings:manage"
	PermManageNewsletter Permission = "newsletter:manage"
	PermViewDashboard    Permission = "dashboard:view"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleContentManager: {
		PermManageContent:    true,
		PermManageBlog:       true,
		PermManageFAQ:        true,
		PermManageGallery:    true,
		PermManageBookings:   true,
		PermViewDashboard:    true,
		PermManageNewsletter: true,
	},
	RoleEditor: {
		PermManageBlog:    true,
		PermManageFAQ:     true,
		PermManageGallery: true,
	},
}

// RoleCan reports whether role grants perm. Admins are granted everything.
func RoleCan(role Role, perm Permission) bool {
	if role == RoleAdmin {
		return true
	}
	return rolePermissions[role][perm]
}

// Actor is the authenticated caller of an operation. The zero value is an
// anonymous visitor.
type Actor struct {
	ID        string
	Email     string
	Role      Role
	Active    bool
	Superuser bool
}

func (a Actor) Anonymous() bool { return a.ID == "" }

// AuditID is the id recorded in created_by and updated_by. Superusers live
// outside the users collection and are not recorded.
func (a Actor) AuditID() string {
	if a.Superuser {
		return ""
	}
	return a.ID
}

func (a Actor) IsAdmin() bool {
	return a.Superuser || a.Role == RoleAdmin
}

// Can reports whether an active actor holds perm.
func (a Actor) Can(perm Permission) bool {
	if a.Anonymous() || !a.Active {
		return false
	}
	if a.Superuser {
		return true
	}
	return RoleCan(a.Role, perm)
}
