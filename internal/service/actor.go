package service

import (
	"opinian/internal/role"
)

// Actor identifies the account performing an operation. Every core
// operation takes the actor explicitly; nothing is read from ambient
// session state.
type Actor struct {
	AccountID uint
	Username  string
	Email     string
	Role      role.Role
	TenantID  *uint
}

// RequestMeta carries transport details recorded in the audit trail
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// sameTenant reports whether the actor's tenant matches the given tenant id
func (a Actor) sameTenant(tenantID *uint) bool {
	if a.TenantID == nil || tenantID == nil {
		return false
	}
	return *a.TenantID == *tenantID
}

// canModerate reports whether the actor may review content belonging to the
// given tenant: SuperAdmin everywhere, content_manage holders within their
// own tenant.
func (a Actor) canModerate(tenantID *uint) bool {
	if a.Role == role.SuperAdmin {
		return true
	}
	if !role.HasCapability(a.Role, role.ContentManage) {
		return false
	}
	return a.sameTenant(tenantID)
}
