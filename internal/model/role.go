package model

// Role is the fixed identity class assigned to every user.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleTeacher     Role = "teacher"
	RoleHeadTeacher Role = "head-teacher"
	RoleAccounts    Role = "accounts"
	RoleParent      Role = "parent"
	RoleStudent     Role = "student"
)

// AllRoles lists every role the system knows about.
var AllRoles = []Role{
	RoleAdmin,
	RoleTeacher,
	RoleHeadTeacher,
	RoleAccounts,
	RoleParent,
	RoleStudent,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to school staff.
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleHeadTeacher, RoleAccounts:
		return true
	}
	return false
}
