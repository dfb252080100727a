package portal

// Role is the portal's derived tri-state role. It is computed from the
// identity token's group set on every use and never stored.
type Role string

const (
	// RoleAdmin is granted by the "Admin" group and wins over any other
	// group present on the account.
	RoleAdmin Role = "Admin"
	// RoleStaff is granted by the "MedisysStaff" group when "Admin" is not
	// present.
	RoleStaff Role = "MedisysStaff"
	// RoleClinicUser is the default for any authenticated account that is
	// neither admin nor staff.
	RoleClinicUser Role = "ClinicUser"
	// RoleNone marks an unauthenticated visitor.
	RoleNone Role = ""
)

// PrimaryRole collapses a group set into exactly one Role.
func PrimaryRole(groups []string) Role {
	role := RoleClinicUser
	for _, g := range groups {
		switch g {
		case string(RoleAdmin):
			return RoleAdmin
		case string(RoleStaff):
			role = RoleStaff
		}
	}
	return role
}

// Route paths. Navigation and routing both consume VisibleRoutes so a role
// can never see a link it cannot reach, or reach a page it cannot see.
const (
	RouteLogin         = "/login"
	RouteLogout        = "/logout"
	RouteAuthCallback  = "/auth/callback"
	RouteSessionCreate = "/auth/session"
	RouteDashboard     = "/"
	RouteProfile       = "/profile"
	RouteUpload        = "/upload"
	RouteMyReports     = "/my-reports"
	RouteAllReports    = "/all-reports"
	RouteManageUsers   = "/manage-users"
)

// NavLink is a navigation entry shown for a role.
type NavLink struct {
	Path  string
	Label string
}

// VisibleRoutes returns the set of destinations a role may reach.
func VisibleRoutes(role Role) []string {
	if role == RoleNone {
		return []string{RouteLogin, RouteAuthCallback}
	}

	routes := []string{RouteDashboard, RouteProfile}
	switch role {
	case RoleClinicUser:
		routes = append(routes, RouteUpload, RouteMyReports)
	case RoleStaff:
		routes = append(routes, RouteAllReports)
	case RoleAdmin:
		routes = append(routes, RouteAllReports, RouteManageUsers)
	}
	return routes
}

// CanAccess reports whether a role may reach the given path.
func CanAccess(role Role, path string) bool {
	for _, p := range VisibleRoutes(role) {
		if p == path {
			return true
		}
	}
	return false
}

// NavLinks returns the navigation bar entries for a role, in display order.
func NavLinks(role Role) []NavLink {
	if role == RoleNone {
		return nil
	}

	links := []NavLink{{Path: RouteDashboard, Label: "Dashboard"}}
	if role == RoleClinicUser {
		links = append(links,
			NavLink{Path: RouteUpload, Label: "Upload Report"},
			NavLink{Path: RouteMyReports, Label: "My Reports"},
		)
	}
	if role == RoleStaff || role == RoleAdmin {
		links = append(links, NavLink{Path: RouteAllReports, Label: "All Reports"})
	}
	links = append(links, NavLink{Path: RouteProfile, Label: "Profile"})
	if role == RoleAdmin {
		links = append(links, NavLink{Path: RouteManageUsers, Label: "Manage Users"})
	}
	return links
}
