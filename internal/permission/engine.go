package permission

import (
	"context"
	"fmt"

	"docmanager/internal/domain"
)

// Store is the read surface the engine resolves against. All methods
// are snapshot reads; the engine never writes.
type Store interface {
	// RoleFor returns the user's role in the tenant. The bool reports
	// whether a role row exists; absence is not an error.
	RoleFor(ctx context.Context, tenant *domain.Tenant, userID uint64) (domain.RoleLevel, bool, error)
	// GroupIDs returns the IDs of the tenant's groups the user belongs to.
	GroupIDs(ctx context.Context, tenant *domain.Tenant, userID uint64) ([]uint64, error)
	HasDocumentUserGrant(ctx context.Context, tenant *domain.Tenant, documentID, userID uint64, action domain.DocumentAction) (bool, error)
	HasDocumentGroupGrant(ctx context.Context, tenant *domain.Tenant, documentID uint64, groupIDs []uint64, action domain.DocumentAction) (bool, error)
	HasFolderUserGrant(ctx context.Context, tenant *domain.Tenant, folderID, userID uint64, action domain.FolderAction) (bool, error)
	HasFolderGroupGrant(ctx context.Context, tenant *domain.Tenant, folderID uint64, groupIDs []uint64, action domain.FolderAction) (bool, error)
	FolderByID(ctx context.Context, tenant *domain.Tenant, folderID uint64) (*domain.Folder, error)
	AllDocuments(ctx context.Context, tenant *domain.Tenant) ([]domain.Document, error)
	// VisibleDocuments returns the union of documents the user owns,
	// has a direct ACL on, or reaches through a group ACL,
	// de-duplicated, newest first.
	VisibleDocuments(ctx context.Context, tenant *domain.Tenant, userID uint64, groupIDs []uint64) ([]domain.Document, error)
}

// maxFolderDepth caps the ancestor walk. Folder creation enforces
// acyclicity, so the cap only matters for corrupted data.
const maxFolderDepth = 64

// Engine resolves whether a principal may perform an action on a
// document or folder. Resolution is a pure read.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Allows resolves a document action, first match wins:
// owner, tenant role, direct ACL, group ACL, deny.
func (e *Engine) Allows(ctx context.Context, tenant *domain.Tenant, userID uint64, doc *domain.Document, action domain.DocumentAction) (bool, error) {
	if doc.UploadedByID != nil && *doc.UploadedByID == userID {
		return true, nil
	}

	level, hasRole, err := e.store.RoleFor(ctx, tenant, userID)
	if err != nil {
		return false, err
	}
	if hasRole && level.AllowsDocument(action) {
		return true, nil
	}

	allowed, err := e.store.HasDocumentUserGrant(ctx, tenant, doc.ID, userID, action)
	if err != nil || allowed {
		return allowed, err
	}

	groupIDs, err := e.store.GroupIDs(ctx, tenant, userID)
	if err != nil {
		return false, err
	}
	if len(groupIDs) == 0 {
		return false, nil
	}
	return e.store.HasDocumentGroupGrant(ctx, tenant, doc.ID, groupIDs, action)
}

// AllowsFolder resolves a folder action on the folder itself, then
// walks up the ancestry: a grant on any ancestor authorizes the
// descendant, never the reverse.
func (e *Engine) AllowsFolder(ctx context.Context, tenant *domain.Tenant, userID uint64, folder *domain.Folder, action domain.FolderAction) (bool, error) {
	// The role grant is tenant-wide, so it short-circuits the walk.
	level, hasRole, err := e.store.RoleFor(ctx, tenant, userID)
	if err != nil {
		return false, err
	}
	if hasRole && level == domain.RoleAdmin {
		return true, nil
	}

	groupIDs, err := e.store.GroupIDs(ctx, tenant, userID)
	if err != nil {
		return false, err
	}

	visited := make(map[uint64]bool)
	current := folder
	for depth := 0; depth < maxFolderDepth; depth++ {
		if visited[current.ID] {
			return false, fmt.Errorf("folder ancestry cycle at folder %d", current.ID)
		}
		visited[current.ID] = true

		if current.CreatedByID != nil && *current.CreatedByID == userID {
			return true, nil
		}

		allowed, err := e.store.HasFolderUserGrant(ctx, tenant, current.ID, userID, action)
		if err != nil || allowed {
			return allowed, err
		}

		if len(groupIDs) > 0 {
			allowed, err = e.store.HasFolderGroupGrant(ctx, tenant, current.ID, groupIDs, action)
			if err != nil || allowed {
				return allowed, err
			}
		}

		if current.ParentID == nil {
			return false, nil
		}
		current, err = e.store.FolderByID(ctx, tenant, *current.ParentID)
		if err != nil {
			return false, err
		}
	}
	return false, fmt.Errorf("folder ancestry deeper than %d levels", maxFolderDepth)
}

// IsTenantAdmin reports whether the user holds the admin role in the
// tenant. ACL management is gated on this plus ownership.
func (e *Engine) IsTenantAdmin(ctx context.Context, tenant *domain.Tenant, userID uint64) (bool, error) {
	level, hasRole, err := e.store.RoleFor(ctx, tenant, userID)
	if err != nil {
		return false, err
	}
	return hasRole && level == domain.RoleAdmin, nil
}

// ListVisible returns every document the user may see in the tenant:
// all of them for tenant admins, otherwise the owned/granted union.
func (e *Engine) ListVisible(ctx context.Context, tenant *domain.Tenant, userID uint64) ([]domain.Document, error) {
	level, hasRole, err := e.store.RoleFor(ctx, tenant, userID)
	if err != nil {
		return nil, err
	}
	if hasRole && level == domain.RoleAdmin {
		return e.store.AllDocuments(ctx, tenant)
	}

	groupIDs, err := e.store.GroupIDs(ctx, tenant, userID)
	if err != nil {
		return nil, err
	}
	return e.store.VisibleDocuments(ctx, tenant, userID, groupIDs)
}
