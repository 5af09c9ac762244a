package folder

import (
	"context"
	defErrors "errors"
	"fmt"

	"gorm.io/gorm"

	"docmanager/internal/audit"
	"docmanager/internal/content"
	"docmanager/internal/domain"
	"docmanager/internal/errors"
	"docmanager/internal/permission"
)

type Service interface {
	Create(ctx context.Context, tenant *domain.Tenant, userID uint64, name string, parentID *uint64) (*domain.Folder, error)
	Get(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64) (*domain.Folder, error)
	ListChildren(ctx context.Context, tenant *domain.Tenant, userID uint64, parentID *uint64) ([]domain.Folder, error)
	Move(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64, newParentID *uint64) error
	Delete(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64, clientIP string) error
	Grant(ctx context.Context, tenant *domain.Tenant, userID uint64, acl *domain.FolderACL) error
	Revoke(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID, aclID uint64) error
	ListACLs(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64) ([]domain.FolderACL, error)
}

type DefaultService struct {
	repository Repository
	engine     *permission.Engine
	store      *content.Store
	recorder   *audit.Recorder
}

func NewService(repository Repository, engine *permission.Engine, store *content.Store, recorder *audit.Recorder) Service {
	return &DefaultService{
		repository: repository,
		engine:     engine,
		store:      store,
		recorder:   recorder,
	}
}

func (s *DefaultService) Create(ctx context.Context, tenant *domain.Tenant, userID uint64, name string, parentID *uint64) (*domain.Folder, error) {
	if name == "" {
		return nil, errors.BadRequest("Folder name cannot be empty", nil)
	}

	if parentID != nil {
		parent, err := s.repository.FindByID(ctx, tenant, *parentID)
		if defErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Parent folder not found", err)
		}
		if err != nil {
			return nil, err
		}
		allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, parent, domain.FolderWrite)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, errors.Forbidden("No write permission on parent folder", nil)
		}
	}

	folder := &domain.Folder{
		Name:        name,
		ParentID:    parentID,
		CreatedByID: &userID,
	}
	if err := s.repository.Create(ctx, tenant, folder); err != nil {
		if defErrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Conflict("A sibling folder with that name already exists", err)
		}
		return nil, err
	}
	return folder, nil
}

func (s *DefaultService) Get(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64) (*domain.Folder, error) {
	folder, err := s.repository.FindByID(ctx, tenant, folderID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Folder not found", err)
	}
	if err != nil {
		return nil, err
	}
	allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, folder, domain.FolderRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, errors.Forbidden("No read permission on folder", nil)
	}
	return folder, nil
}

func (s *DefaultService) ListChildren(ctx context.Context, tenant *domain.Tenant, userID uint64, parentID *uint64) ([]domain.Folder, error) {
	if parentID != nil {
		// Reading the listing of a folder requires read on it.
		if _, err := s.Get(ctx, tenant, userID, *parentID); err != nil {
			return nil, err
		}
	}
	children, err := s.repository.ListChildren(ctx, tenant, parentID)
	if err != nil {
		return nil, err
	}

	visible := make([]domain.Folder, 0, len(children))
	for i := range children {
		allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, &children[i], domain.FolderRead)
		if err != nil {
			return nil, err
		}
		if allowed {
			visible = append(visible, children[i])
		}
	}
	return visible, nil
}

// Move reparents a folder. The new ancestry is validated before the
// mutation: a parent whose chain already contains the folder would
// create a cycle.
func (s *DefaultService) Move(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64, newParentID *uint64) error {
	folder, err := s.repository.FindByID(ctx, tenant, folderID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Folder not found", err)
	}
	if err != nil {
		return err
	}

	allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, folder, domain.FolderWrite)
	if err != nil {
		return err
	}
	if !allowed {
		return errors.Forbidden("No write permission on folder", nil)
	}

	if newParentID != nil {
		if *newParentID == folderID {
			return errors.UnprocessableEntity("Folder cannot be its own parent", nil)
		}
		parent, err := s.repository.FindByID(ctx, tenant, *newParentID)
		if defErrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Parent folder not found", err)
		}
		if err != nil {
			return err
		}
		allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, parent, domain.FolderWrite)
		if err != nil {
			return err
		}
		if !allowed {
			return errors.Forbidden("No write permission on target folder", nil)
		}
		if err := s.checkAncestry(ctx, tenant, folderID, parent); err != nil {
			return err
		}
	}

	if err := s.repository.UpdateParent(ctx, tenant, folderID, newParentID); err != nil {
		if defErrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.Conflict("A sibling folder with that name already exists", err)
		}
		return err
	}
	return nil
}

// checkAncestry walks up from the candidate parent and rejects the
// move if the folder itself appears in the chain.
func (s *DefaultService) checkAncestry(ctx context.Context, tenant *domain.Tenant, folderID uint64, parent *domain.Folder) error {
	seen := make(map[uint64]bool)
	current := parent
	for {
		if current.ID == folderID {
			return errors.UnprocessableEntity("Folder cannot be moved inside its own subtree", nil)
		}
		if seen[current.ID] {
			return fmt.Errorf("folder ancestry cycle at folder %d", current.ID)
		}
		seen[current.ID] = true
		if current.ParentID == nil {
			return nil
		}
		next, err := s.repository.FindByID(ctx, tenant, *current.ParentID)
		if err != nil {
			return err
		}
		current = next
	}
}

// Delete removes a folder, all of its descendants, and the documents
// inside them in one transaction, then releases the stored files the
// documents pointed at.
func (s *DefaultService) Delete(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64, clientIP string) error {
	folder, err := s.repository.FindByID(ctx, tenant, folderID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Folder not found", err)
	}
	if err != nil {
		return err
	}

	allowed, err := s.engine.AllowsFolder(ctx, tenant, userID, folder, domain.FolderDelete)
	if err != nil {
		return err
	}
	if !allowed {
		return errors.Forbidden("No delete permission on folder", nil)
	}

	subtree, err := s.collectSubtree(ctx, tenant, folderID)
	if err != nil {
		return err
	}

	storedFileIDs, err := s.repository.DeleteCascade(ctx, tenant, subtree)
	if err != nil {
		return err
	}

	// Reference counts are rechecked inside Release, so a stored file
	// still used by documents elsewhere survives.
	for _, id := range storedFileIDs {
		if err := s.store.Release(ctx, &domain.StoredFile{ID: id}); err != nil {
			return err
		}
	}

	s.recorder.RecordAsync(tenant, domain.AuditLog{
		UserID:    &userID,
		Action:    domain.AuditDelete,
		IPAddress: clientIP,
		Details:   fmt.Sprintf("Deleted folder: %s (%d folders)", folder.Name, len(subtree)),
	})
	return nil
}

// collectSubtree returns the folder and every descendant, breadth first.
func (s *DefaultService) collectSubtree(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]uint64, error) {
	all := []uint64{folderID}
	queue := []uint64{folderID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := s.repository.ChildIDs(ctx, tenant, id)
		if err != nil {
			return nil, err
		}
		all = append(all, children...)
		queue = append(queue, children...)
	}
	return all, nil
}

func (s *DefaultService) Grant(ctx context.Context, tenant *domain.Tenant, userID uint64, acl *domain.FolderACL) error {
	if err := acl.Validate(); err != nil {
		return errors.UnprocessableEntity(err.Error(), err)
	}

	folder, err := s.repository.FindByID(ctx, tenant, acl.FolderID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Folder not found", err)
	}
	if err != nil {
		return err
	}

	if err := s.requireManager(ctx, tenant, userID, folder); err != nil {
		return err
	}

	acl.GrantedByID = &userID
	return s.repository.CreateACL(ctx, tenant, acl)
}

func (s *DefaultService) Revoke(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID, aclID uint64) error {
	folder, err := s.repository.FindByID(ctx, tenant, folderID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("Folder not found", err)
	}
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, tenant, userID, folder); err != nil {
		return err
	}
	return s.repository.DeleteACL(ctx, tenant, folderID, aclID)
}

func (s *DefaultService) ListACLs(ctx context.Context, tenant *domain.Tenant, userID uint64, folderID uint64) ([]domain.FolderACL, error) {
	folder, err := s.repository.FindByID(ctx, tenant, folderID)
	if defErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Folder not found", err)
	}
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, tenant, userID, folder); err != nil {
		return nil, err
	}
	return s.repository.ListACLs(ctx, tenant, folderID)
}

// requireManager restricts ACL management to the folder creator and
// tenant admins.
func (s *DefaultService) requireManager(ctx context.Context, tenant *domain.Tenant, userID uint64, folder *domain.Folder) error {
	if folder.CreatedByID != nil && *folder.CreatedByID == userID {
		return nil
	}
	isAdmin, err := s.engine.IsTenantAdmin(ctx, tenant, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return errors.Forbidden("Only the folder creator or a tenant admin can manage folder access", nil)
	}
	return nil
}
