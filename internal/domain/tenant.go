package domain

import (
	"time"
)

// Tenant is an isolated customer partition. Every other tenant-scoped
// entity belongs to exactly one Tenant.
type Tenant struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex"`
	// IsolationKey is the PostgreSQL schema name under the namespace
	// isolation strategy, or an opaque partition key otherwise.
	IsolationKey string    `json:"isolation_key" gorm:"size:63;uniqueIndex"`
	Domain       string    `json:"domain" gorm:"size:255;uniqueIndex"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
}

// Membership links a user to a tenant for login-time visibility.
// Distinct from Role, which governs what the user may do inside the tenant.
type Membership struct {
	ID            uint64    `json:"id"`
	TenantID      uint64    `json:"tenant_id" gorm:"uniqueIndex:idx_memberships_tenant_user"`
	UserID        uint64    `json:"user_id" gorm:"uniqueIndex:idx_memberships_tenant_user"`
	IsTenantAdmin bool      `json:"is_tenant_admin"`
	JoinedAt      time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
