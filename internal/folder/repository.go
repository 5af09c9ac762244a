package folder

import (
	"context"

	"gorm.io/gorm"

	"docmanager/internal/domain"
	"docmanager/internal/tenancy"
)

// Repository is the folder data access layer. Every accessor takes the
// tenant; there is no way to touch folder rows without naming one.
type Repository interface {
	Create(ctx context.Context, tenant *domain.Tenant, folder *domain.Folder) error
	FindByID(ctx context.Context, tenant *domain.Tenant, id uint64) (*domain.Folder, error)
	ListChildren(ctx context.Context, tenant *domain.Tenant, parentID *uint64) ([]domain.Folder, error)
	ChildIDs(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]uint64, error)
	UpdateParent(ctx context.Context, tenant *domain.Tenant, folderID uint64, parentID *uint64) error
	// DeleteCascade removes the folders, their ACLs, and the documents
	// (with document ACLs) inside them in one transaction. It returns
	// the stored-file IDs the deleted documents referenced so the
	// caller can release them.
	DeleteCascade(ctx context.Context, tenant *domain.Tenant, folderIDs []uint64) ([]uint64, error)
	CreateACL(ctx context.Context, tenant *domain.Tenant, acl *domain.FolderACL) error
	DeleteACL(ctx context.Context, tenant *domain.Tenant, folderID, aclID uint64) error
	ListACLs(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]domain.FolderACL, error)
}

type RepositoryImpl struct {
	strategy tenancy.Strategy
}

// NewRepository creates a new folder repository
func NewRepository(strategy tenancy.Strategy) Repository {
	return &RepositoryImpl{strategy: strategy}
}

func (r *RepositoryImpl) Create(ctx context.Context, tenant *domain.Tenant, folder *domain.Folder) error {
	folder.TenantID = tenant.ID
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Create(folder).Error
	})
}

func (r *RepositoryImpl) FindByID(ctx context.Context, tenant *domain.Tenant, id uint64) (*domain.Folder, error) {
	var folder domain.Folder
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenant.ID).First(&folder, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *RepositoryImpl) ListChildren(ctx context.Context, tenant *domain.Tenant, parentID *uint64) ([]domain.Folder, error) {
	var folders []domain.Folder
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		q := tx.Where("tenant_id = ?", tenant.ID)
		if parentID == nil {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", *parentID)
		}
		return q.Order("name").Find(&folders).Error
	})
	return folders, err
}

func (r *RepositoryImpl) ChildIDs(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.Folder{}).
			Where("tenant_id = ? AND parent_id = ?", tenant.ID, folderID).
			Pluck("id", &ids).Error
	})
	return ids, err
}

func (r *RepositoryImpl) UpdateParent(ctx context.Context, tenant *domain.Tenant, folderID uint64, parentID *uint64) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.Folder{}).
			Where("tenant_id = ? AND id = ?", tenant.ID, folderID).
			Update("parent_id", parentID).Error
	})
}

func (r *RepositoryImpl) DeleteCascade(ctx context.Context, tenant *domain.Tenant, folderIDs []uint64) ([]uint64, error) {
	var storedFileIDs []uint64
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			var docIDs []uint64
			if err := tx.Model(&domain.Document{}).
				Where("tenant_id = ? AND folder_id IN ?", tenant.ID, folderIDs).
				Pluck("id", &docIDs).Error; err != nil {
				return err
			}
			if len(docIDs) > 0 {
				if err := tx.Model(&domain.Document{}).
					Where("id IN ?", docIDs).
					Distinct().
					Pluck("stored_file_id", &storedFileIDs).Error; err != nil {
					return err
				}
				if err := tx.Where("document_id IN ?", docIDs).Delete(&domain.ACL{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", docIDs).Delete(&domain.Document{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("folder_id IN ?", folderIDs).Delete(&domain.FolderACL{}).Error; err != nil {
				return err
			}
			return tx.Where("tenant_id = ? AND id IN ?", tenant.ID, folderIDs).
				Delete(&domain.Folder{}).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return storedFileIDs, nil
}

func (r *RepositoryImpl) CreateACL(ctx context.Context, tenant *domain.Tenant, acl *domain.FolderACL) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Create(acl).Error
	})
}

func (r *RepositoryImpl) DeleteACL(ctx context.Context, tenant *domain.Tenant, folderID, aclID uint64) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("folder_id = ?", folderID).Delete(&domain.FolderACL{}, aclID).Error
	})
}

func (r *RepositoryImpl) ListACLs(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]domain.FolderACL, error) {
	var acls []domain.FolderACL
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("folder_id = ?", folderID).Order("granted_at").Find(&acls).Error
	})
	return acls, err
}
