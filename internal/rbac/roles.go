package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleOwner      = "owner"
	RoleStaff      = "staff"
	RoleSuperAdmin = "super_admin"
)

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// StaffRoles may operate on their own tenant's calls, appointments and settings.
var StaffRoles = []string{RoleOwner, RoleStaff}
