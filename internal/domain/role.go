package domain

import "time"

// RoleLevel is the closed set of tenant-scoped roles. Adding a
// DocumentAction forces a decision here for every level.
type RoleLevel string

const (
	RoleAdmin  RoleLevel = "admin"
	RoleEditor RoleLevel = "editor"
	RoleViewer RoleLevel = "viewer"
)

// Valid reports whether l is one of the known role levels.
func (l RoleLevel) Valid() bool {
	switch l {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// AllowsDocument maps (role, action) to allow/deny. Admins may do
// everything; editors everything but delete; viewers only read.
func (l RoleLevel) AllowsDocument(action DocumentAction) bool {
	switch l {
	case RoleAdmin:
		return true
	case RoleEditor:
		switch action {
		case ActionRead, ActionDownload, ActionEdit:
			return true
		case ActionDelete:
			return false
		}
		return false
	case RoleViewer:
		return action == ActionRead
	}
	return false
}

// Role assigns one RoleLevel to a user within a tenant. Absence of a
// row means no role-based grant; explicit ACLs still apply.
type Role struct {
	ID        uint64    `json:"id"`
	TenantID  uint64    `json:"tenant_id" gorm:"uniqueIndex:idx_roles_tenant_user"`
	UserID    uint64    `json:"user_id" gorm:"uniqueIndex:idx_roles_tenant_user"`
	Level     RoleLevel `json:"level" gorm:"size:20"`
	CreatedAt time.Time `json:"created_at"`
}
