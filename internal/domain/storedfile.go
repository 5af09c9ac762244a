package domain

import (
	"fmt"
	"time"
)

// DedupScope controls whether identical content is deduplicated across
// all tenants or only within one. Fixed per deployment, injected into
// the content store at construction.
type DedupScope string

const (
	DedupGlobal    DedupScope = "global"
	DedupPerTenant DedupScope = "per_tenant"
)

// Valid reports whether s is a known dedup scope.
func (s DedupScope) Valid() bool {
	return s == DedupGlobal || s == DedupPerTenant
}

// StoredFile records physical bytes exactly once per dedup key. Rows
// are immutable after creation and shared by every Document that
// references them.
type StoredFile struct {
	ID            uint64  `json:"id"`
	ScopeTenantID *uint64 `json:"scope_tenant_id"` // nil under global dedup
	Checksum      string  `json:"checksum" gorm:"size:64;index"` // SHA-256, hex
	// ScopeKey is the existence-check key: the checksum alone under
	// global scope, checksum|tenant under per-tenant scope. The unique
	// index on it is what makes concurrent puts converge; a composite
	// (checksum, scope_tenant_id) index would not, since Postgres
	// treats NULLs as distinct.
	ScopeKey    string    `json:"-" gorm:"size:96;uniqueIndex"`
	StoragePath string    `json:"-" gorm:"size:500"`
	ByteSize    int64     `json:"byte_size"`
	MimeType    string    `json:"mime_type" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName pins stored files to the public schema. Rows are shared
// across tenants, so schema provisioning must not capture a per-tenant
// copy and namespace queries must resolve past the search_path.
func (StoredFile) TableName() string { return "public.stored_files" }

// ScopeKeyFor builds the existence-check key for a checksum under the
// given scope.
func ScopeKeyFor(scope DedupScope, checksum string, tenant *Tenant) string {
	if scope == DedupPerTenant && tenant != nil {
		return fmt.Sprintf("%s|%d", checksum, tenant.ID)
	}
	return checksum
}
