package claims

import "strings"

var defaultRoutes = map[string]string{
	RoleAdmin:   "/admin",
	RoleExpert:  "/expert",
	RoleStudent: "/overview",
}

var publicRoutes = []string{"/sign-in", "/sign-up", "/classes", "/experts", "/consultants"}

// DefaultRoute is the landing page of role.
func DefaultRoute(role string) string {
	if r, ok := defaultRoutes[role]; ok {
		return r
	}
	return defaultRoutes[RoleStudent]
}

// RouteAccess decides whether a page may be rendered for the caller. When
// it may not, redirect names where the caller should go instead.
func RouteAccess(c Claims, path string) (allowed bool, redirect string) {
	if path == "" || path == "/" || matchesAny(path, publicRoutes) {
		return true, ""
	}

	if c.UserID == "" {
		return false, "/sign-in"
	}

	switch {
	case matches(path, "/admin"):
		if c.IsAdmin() {
			return true, ""
		}
	case matches(path, "/expert"):
		if c.Role == RoleExpert || c.IsAdmin() {
			return true, ""
		}
	default:
		return true, ""
	}

	return false, DefaultRoute(c.Role)
}

func matches(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if matches(path, p) {
			return true
		}
	}
	return false
}
