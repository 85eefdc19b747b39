package claims

// Authorization decisions live here so handlers never compare role
// strings themselves.

func (c Claims) IsAdmin() bool { return c.Role == RoleAdmin }

func (c Claims) IsExpert() bool { return c.Role == RoleExpert && c.ExpertID != "" }

// Owns reports whether the caller is the user identified by userID.
func (c Claims) Owns(userID string) bool {
	return c.UserID != "" && c.UserID == userID
}

// CanManageClass is true for admins and for the expert teaching the class.
func (c Claims) CanManageClass(expertID string) bool {
	if c.IsAdmin() {
		return true
	}
	return c.IsExpert() && c.ExpertID == expertID
}

// CanManageExpert is true for admins and for the expert profile owner.
func (c Claims) CanManageExpert(expertUserID string) bool {
	return c.IsAdmin() || c.Owns(expertUserID)
}

// CanView is true for admins and for the owner of a resource.
func (c Claims) CanView(ownerID string) bool {
	return c.IsAdmin() || c.Owns(ownerID)
}

// HasRole reports whether the caller holds one of roles. Admins hold every role.
func (c Claims) HasRole(roles ...string) bool {
	if c.IsAdmin() {
		return true
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
