package domain

import (
	"time"
)

// Folder is a node in a per-tenant folder forest. Parent is held by ID,
// never as an embedded pointer; acyclicity is enforced where the parent
// is assigned, not by traversal.
type Folder struct {
	ID          uint64    `json:"id"`
	TenantID    uint64    `json:"tenant_id" gorm:"uniqueIndex:idx_folders_tenant_parent_name"`
	ParentID    *uint64   `json:"parent_id" gorm:"uniqueIndex:idx_folders_tenant_parent_name"`
	Name        string    `json:"name" gorm:"size:255;uniqueIndex:idx_folders_tenant_parent_name"`
	CreatedByID *uint64   `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// FolderAction is the closed set of folder-level permissions.
// read gates listing, write gates creating/uploading inside, delete
// gates removing the folder itself.
type FolderAction string

const (
	FolderRead   FolderAction = "read"
	FolderWrite  FolderAction = "write"
	FolderDelete FolderAction = "delete"
)

// Valid reports whether a is a known folder action.
func (a FolderAction) Valid() bool {
	switch a {
	case FolderRead, FolderWrite, FolderDelete:
		return true
	}
	return false
}

// FolderACL grants one folder action to exactly one of a user or a
// group. Grants on a folder reach all of its descendants.
type FolderACL struct {
	ID          uint64       `json:"id"`
	FolderID    uint64       `json:"folder_id" gorm:"index:idx_folder_acls_folder_user;index:idx_folder_acls_folder_group"`
	UserID      *uint64      `json:"user_id" gorm:"index:idx_folder_acls_folder_user"`
	GroupID     *uint64      `json:"group_id" gorm:"index:idx_folder_acls_folder_group"`
	Permission  FolderAction `json:"permission" gorm:"size:20"`
	GrantedByID *uint64      `json:"granted_by_id"`
	GrantedAt   time.Time    `json:"granted_at" gorm:"autoCreateTime"`
}

// Validate rejects grants naming both or neither of user and group,
// and unknown permissions.
func (a *FolderACL) Validate() error {
	if err := validatePrincipal(a.UserID, a.GroupID); err != nil {
		return err
	}
	if !a.Permission.Valid() {
		return ErrInvalidPermission
	}
	return nil
}
