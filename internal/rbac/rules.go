package rbac

const (
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)

// Default policy. A parent manages answer keys and the family's accounts; a
// child grades their own work and sees their own history.
var RolePermissions = map[string][]string{
	RoleStudent: {
		"grade:submit",
		"answerkey:view",
		"history:view-own",
	},
	RoleParent: {
		"answerkey:*",
		"grade:submit",
		"history:view-all",
		"users:create",
	},
	RoleAdmin: {
		"*", // everything
	},
}

// ValidRole reports whether role has an entry in the default policy.
func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}
