package role

// Role is the closed set of platform roles, ordered by privilege:
// SuperAdmin > Admin > SuperUser > User.
type Role string

const (
	SuperAdmin Role = "SuperAdmin"
	Admin      Role = "Admin"
	SuperUser  Role = "SuperUser"
	User       Role = "User"
)

// Capability is a named permission granted to a role
type Capability string

const (
	PlatformManage Capability = "platform_manage"
	UserManage     Capability = "user_manage"
	ContentManage  Capability = "content_manage"
	ContentCreate  Capability = "content_create"
	ContentView    Capability = "content_view"
	PageCreate     Capability = "page_create"
	ThemeManage    Capability = "theme_manage"
	ThemeView      Capability = "theme_view"
	GroupManage    Capability = "group_manage"
	APIManage      Capability = "api_manage"
)

// capabilities is the fixed role-to-capability table. It is reference data
// and is not configurable at runtime.
var capabilities = map[Role][]Capability{
	SuperAdmin: {PlatformManage, UserManage, ContentManage, ThemeManage, APIManage},
	Admin:      {GroupManage, UserManage, ContentManage, ThemeManage},
	SuperUser:  {ContentCreate, PageCreate, ThemeView, ContentView},
	User:       {ContentCreate, ContentView},
}

// creatable maps an actor role to the roles it may create accounts for.
// SuperAdmin may create any role; Admin may only create SuperUser and User
// accounts within its own tenant; SuperUser and User may create none.
var creatable = map[Role][]Role{
	SuperAdmin: {SuperAdmin, Admin, SuperUser, User},
	Admin:      {SuperUser, User},
}

// Parse returns the matching Role, or false for an unknown value
func Parse(s string) (Role, bool) {
	switch Role(s) {
	case SuperAdmin, Admin, SuperUser, User:
		return Role(s), true
	}
	return "", false
}

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// CapabilitiesOf returns the capability set of a role
func CapabilitiesOf(r Role) []Capability {
	caps := capabilities[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

// HasCapability reports whether a role holds the given capability
func HasCapability(r Role, c Capability) bool {
	for _, cap := range capabilities[r] {
		if cap == c {
			return true
		}
	}
	return false
}

// CanCreateRole reports whether an actor role may create accounts of the
// target role. Callers are responsible for tenant scoping; a disallowed
// creation surfaces as a permission error from the account directory.
func CanCreateRole(actor, target Role) bool {
	for _, r := range creatable[actor] {
		if r == target {
			return true
		}
	}
	return false
}

// BypassesModeration reports whether content authored by this role is
// published directly rather than queued for review
func BypassesModeration(r Role) bool {
	switch r {
	case SuperAdmin, Admin, SuperUser:
		return true
	}
	return false
}
