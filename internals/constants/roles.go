package constants

import "fmt"

const (
	RoleGuest      = "guest"
	RoleParent     = "parent"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
	RoleOwner      = "owner"
)

// Error message templates for role checks
const (
	ErrOnlyAdminsCanAccess  = "❌ Only admin or owner may access %s."
	ErrOnlyOwnersCanAccess  = "❌ Only owner may access %s."
	ErrOnlyParentsCanAccess = "❌ Only a signed-in parent may access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorOwner(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnersCanAccess, feature)
}

func RoleErrorParent(feature string) string {
	return fmt.Sprintf(ErrOnlyParentsCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleGuest,
		RoleParent,
		RoleInstructor,
		RoleAdmin,
		RoleOwner,
	}

	AdminAndAbove = []string{
		RoleAdmin,
		RoleOwner,
	}

	StaffRoles = []string{
		RoleInstructor,
		RoleAdmin,
		RoleOwner,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)
