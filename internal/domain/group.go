package domain

import "time"

// Group organizes users within a tenant for shared ACL grants.
type Group struct {
	ID        uint64    `json:"id"`
	TenantID  uint64    `json:"tenant_id" gorm:"uniqueIndex:idx_groups_tenant_name"`
	Name      string    `json:"name" gorm:"size:100;uniqueIndex:idx_groups_tenant_name"`
	Members   []User    `json:"members,omitempty" gorm:"many2many:group_members"`
	CreatedAt time.Time `json:"created_at"`
}
