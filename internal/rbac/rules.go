package rbac

const (
	PermValidate = "score:validate"
	PermViewOwn  = "score:view-own"
	PermViewAll  = "score:view-all"
)

// Default policy: students validate and see their own checks, teachers
// see everyone's.
var RolePermissions = map[string][]string{
	"student": {
		PermValidate,
		PermViewOwn,
	},
	"teacher": {
		PermValidate,
		PermViewOwn,
		PermViewAll,
	},
	"admin": {
		"*", // everything
	},
}
