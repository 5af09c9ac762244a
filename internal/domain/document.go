package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPrincipal is returned for ACL grants naming both or
	// neither of user and group.
	ErrInvalidPrincipal = errors.New("acl grant must name exactly one of user or group")
	// ErrInvalidPermission is returned for grants with an unknown
	// permission string.
	ErrInvalidPermission = errors.New("unknown permission")
)

func validatePrincipal(userID, groupID *uint64) error {
	if (userID == nil) == (groupID == nil) {
		return ErrInvalidPrincipal
	}
	return nil
}

// DocumentAction is the closed set of document-level permissions.
type DocumentAction string

const (
	ActionRead     DocumentAction = "read"
	ActionDownload DocumentAction = "download"
	ActionEdit     DocumentAction = "edit"
	ActionDelete   DocumentAction = "delete"
)

// Valid reports whether a is a known document action.
func (a DocumentAction) Valid() bool {
	switch a {
	case ActionRead, ActionDownload, ActionEdit, ActionDelete:
		return true
	}
	return false
}

// Document is tenant-scoped metadata pointing at a shared StoredFile.
// When Folder is set it must belong to the same tenant.
type Document struct {
	ID               uint64     `json:"id"`
	TenantID         uint64     `json:"tenant_id" gorm:"index:idx_documents_tenant_title"`
	FolderID         *uint64    `json:"folder_id"`
	StoredFileID     uint64     `json:"stored_file_id"`
	StoredFile       StoredFile `json:"-"`
	Title            string     `json:"title" gorm:"size:255;index:idx_documents_tenant_title"`
	Description      string     `json:"description"`
	OriginalFilename string     `json:"original_filename" gorm:"size:255"`
	Tags             string     `json:"tags" gorm:"size:500"` // comma-separated
	UploadedByID     *uint64    `json:"uploaded_by_id"`
	UploadedAt       time.Time  `json:"uploaded_at" gorm:"autoCreateTime;index"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ACL grants one document action to exactly one of a user or a group.
// Document ACLs do not inherit from the containing folder.
type ACL struct {
	ID          uint64         `json:"id"`
	DocumentID  uint64         `json:"document_id" gorm:"index:idx_acls_document_user;index:idx_acls_document_group"`
	UserID      *uint64        `json:"user_id" gorm:"index:idx_acls_document_user"`
	GroupID     *uint64        `json:"group_id" gorm:"index:idx_acls_document_group"`
	Permission  DocumentAction `json:"permission" gorm:"size:20"`
	GrantedByID *uint64        `json:"granted_by_id"`
	GrantedAt   time.Time      `json:"granted_at" gorm:"autoCreateTime"`
}

// Validate rejects grants naming both or neither of user and group,
// and unknown permissions.
func (a *ACL) Validate() error {
	if err := validatePrincipal(a.UserID, a.GroupID); err != nil {
		return err
	}
	if !a.Permission.Valid() {
		return ErrInvalidPermission
	}
	return nil
}
