// Package nav maps a session role to the navigation entries and route subtree it may use.
package nav

import "github.com/aliqadomi777/front-end-lms/core/user"

const LoginPath = "/auth/login"

type Entry struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

var menus = map[user.Role][]Entry{
	user.RoleStudent: {
		{Label: "Dashboard", Path: "/student/dashboard"},
		{Label: "Courses", Path: "/student/courses"},
		{Label: "Assignments", Path: "/student/assignments"},
		{Label: "Quizzes", Path: "/student/quizzes"},
		{Label: "Wishlist", Path: "/student/wishlist"},
		{Label: "Analytics", Path: "/student/analytics"},
		{Label: "Profile", Path: "/student/profile"},
	},
	user.RoleInstructor: {
		{Label: "Dashboard", Path: "/instructor/dashboard"},
		{Label: "My Courses", Path: "/instructor/my-courses"},
		{Label: "Assignments", Path: "/instructor/assignments"},
		{Label: "Quizzes", Path: "/instructor/quizzes"},
		{Label: "Analytics", Path: "/instructor/analytics"},
		{Label: "Profile", Path: "/instructor/profile"},
	},
	user.RoleAdmin: {
		{Label: "Dashboard", Path: "/admin/dashboard"},
		{Label: "Users", Path: "/admin/users"},
		{Label: "Courses", Path: "/admin/courses"},
		{Label: "Approvals", Path: "/admin/approvals"},
		{Label: "Analytics", Path: "/admin/analytics"},
		{Label: "System Health", Path: "/admin/system-health"},
	},
}

// Resolve returns the ordered menu for role. Unknown or empty roles get an empty menu.
// The result is a fresh copy; callers may modify it.
func Resolve(role user.Role) []Entry {
	entries := menus[role]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Subtree returns the route prefix role may enter, or "" for unknown roles.
func Subtree(role user.Role) string {
	if !role.Valid() {
		return ""
	}
	return "/" + string(role)
}

// DashboardPath is where a role lands after signing in.
func DashboardPath(role user.Role) string {
	switch role {
	case user.RoleAdmin:
		return "/admin"
	case user.RoleInstructor:
		return "/instructor/dashboard"
	case user.RoleStudent:
		return "/student/dashboard"
	}
	return LoginPath
}
