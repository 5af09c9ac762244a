package domain

import "time"

// AuditAction is the closed set of recorded actions.
type AuditAction string

const (
	AuditUpload   AuditAction = "upload"
	AuditDownload AuditAction = "download"
	AuditView     AuditAction = "view"
	AuditEdit     AuditAction = "edit"
	AuditDelete   AuditAction = "delete"
)

// AuditLog is an append-only record of an action against a resource.
// Rows are never updated or deleted by normal operation.
type AuditLog struct {
	ID         uint64      `json:"id"`
	TenantID   uint64      `json:"tenant_id" gorm:"index:idx_audit_tenant_time"`
	DocumentID *uint64     `json:"document_id" gorm:"index"`
	UserID     *uint64     `json:"user_id"`
	Action     AuditAction `json:"action" gorm:"size:20"`
	Timestamp  time.Time   `json:"timestamp" gorm:"autoCreateTime;index:idx_audit_tenant_time"`
	IPAddress  string      `json:"ip_address" gorm:"size:45"`
	Details    string      `json:"details"`
}
