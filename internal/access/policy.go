package access

// IsAuthorized reports whether role is a member of allowed. An unknown
// role is never authorized, regardless of the allow-list.
func IsAuthorized(role Role, allowed []Role) bool {
	if role == RoleUnknown {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
