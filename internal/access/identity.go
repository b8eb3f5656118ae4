// Package access decides who may read or mutate which resource.
//
// An Identity is the acting user of a request (nil for anonymous callers).
// Its role and staff/superuser flags collapse into a single privilege Level,
// and every gate in this package reads that level instead of re-deriving
// admin-ness from the individual fields. Gates are small Policy values
// combined with All and Any.
package access

// Role is the stored role attribute of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Level is the derived authorization tier of an identity.
type Level int

const (
	LevelAnonymous Level = iota
	LevelUser
	LevelModerator
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelUser:
		return "user"
	case LevelModerator:
		return "moderator"
	case LevelAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Identity is the authenticated actor of a request.
type Identity struct {
	UserID      string
	Username    string
	Role        Role
	IsStaff     bool
	IsSuperuser bool
}

// Authenticated reports whether the identity belongs to a known user.
func (i *Identity) Authenticated() bool {
	return i != nil && i.UserID != ""
}

// Level returns max(role level, staff level).
func (i *Identity) Level() Level {
	if !i.Authenticated() {
		return LevelAnonymous
	}
	if i.IsStaff || i.IsSuperuser {
		return LevelAdmin
	}
	switch i.Role {
	case RoleAdmin:
		return LevelAdmin
	case RoleModerator:
		return LevelModerator
	default:
		return LevelUser
	}
}

// Can reports whether the identity holds at least the given level.
func (i *Identity) Can(level Level) bool {
	return i.Level() >= level
}

// Owns reports whether the identity is the owner recorded on res.
func (i *Identity) Owns(res Resource) bool {
	if !i.Authenticated() || res == nil {
		return false
	}
	return res.OwnerID() == i.UserID
}
