package access

// Role is a closed permission class. Profile rows store the display
// string; ParseRole maps it back and anything unrecognized becomes
// RoleUnknown, which no allow-list contains.
type Role string

const (
	RoleUnknown       Role = ""
	RoleMasterAdmin   Role = "Master Admin"
	RoleFrontOffice   Role = "Front Office"
	RoleLeadWelder    Role = "Lead Welder"
	RoleLeadInstaller Role = "Lead Installer"
	RoleWelder        Role = "Welder"
	RoleSewer         Role = "Sewer"
	RoleInstaller     Role = "Installer"
	RolePowderCoater  Role = "Powder Coater"
)

var allRoles = []Role{
	RoleMasterAdmin,
	RoleFrontOffice,
	RoleLeadWelder,
	RoleLeadInstaller,
	RoleWelder,
	RoleSewer,
	RoleInstaller,
	RolePowderCoater,
}

// ParseRole matches case- and spelling-exact against the known set.
func ParseRole(s string) Role {
	for _, r := range allRoles {
		if string(r) == s {
			return r
		}
	}
	return RoleUnknown
}

// Administration is the allow-list for the administration area.
var Administration = []Role{
	RoleFrontOffice,
	RoleLeadWelder,
	RoleLeadInstaller,
	RoleMasterAdmin,
}
