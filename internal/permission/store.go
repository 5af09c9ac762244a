package permission

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"docmanager/internal/domain"
	"docmanager/internal/tenancy"
)

// GormStore answers the engine's reads through the configured
// isolation strategy. Every query filters by tenant explicitly;
// under the namespace strategy the schema switch isolates as well.
type GormStore struct {
	strategy tenancy.Strategy
}

func NewStore(strategy tenancy.Strategy) *GormStore {
	return &GormStore{strategy: strategy}
}

func (s *GormStore) RoleFor(ctx context.Context, tenant *domain.Tenant, userID uint64) (domain.RoleLevel, bool, error) {
	var role domain.Role
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND user_id = ?", tenant.ID, userID).
			First(&role).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role.Level, true, nil
}

func (s *GormStore) GroupIDs(ctx context.Context, tenant *domain.Tenant, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Table("groups").
			Joins("JOIN group_members ON group_members.group_id = groups.id").
			Where("groups.tenant_id = ? AND group_members.user_id = ?", tenant.ID, userID).
			Pluck("groups.id", &ids).Error
	})
	return ids, err
}

func (s *GormStore) HasDocumentUserGrant(ctx context.Context, tenant *domain.Tenant, documentID, userID uint64, action domain.DocumentAction) (bool, error) {
	var count int64
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.ACL{}).
			Where("document_id = ? AND user_id = ? AND permission = ?", documentID, userID, action).
			Count(&count).Error
	})
	return count > 0, err
}

func (s *GormStore) HasDocumentGroupGrant(ctx context.Context, tenant *domain.Tenant, documentID uint64, groupIDs []uint64, action domain.DocumentAction) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	var count int64
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.ACL{}).
			Where("document_id = ? AND group_id IN ? AND permission = ?", documentID, groupIDs, action).
			Count(&count).Error
	})
	return count > 0, err
}

func (s *GormStore) HasFolderUserGrant(ctx context.Context, tenant *domain.Tenant, folderID, userID uint64, action domain.FolderAction) (bool, error) {
	var count int64
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.FolderACL{}).
			Where("folder_id = ? AND user_id = ? AND permission = ?", folderID, userID, action).
			Count(&count).Error
	})
	return count > 0, err
}

func (s *GormStore) HasFolderGroupGrant(ctx context.Context, tenant *domain.Tenant, folderID uint64, groupIDs []uint64, action domain.FolderAction) (bool, error) {
	if len(groupIDs) == 0 {
		return false, nil
	}
	var count int64
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.FolderACL{}).
			Where("folder_id = ? AND group_id IN ? AND permission = ?", folderID, groupIDs, action).
			Count(&count).Error
	})
	return count > 0, err
}

func (s *GormStore) FolderByID(ctx context.Context, tenant *domain.Tenant, folderID uint64) (*domain.Folder, error) {
	var folder domain.Folder
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenant.ID).First(&folder, folderID).Error
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (s *GormStore) AllDocuments(ctx context.Context, tenant *domain.Tenant) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenant.ID).
			Order("uploaded_at DESC").
			Find(&docs).Error
	})
	return docs, err
}

func (s *GormStore) VisibleDocuments(ctx context.Context, tenant *domain.Tenant, userID uint64, groupIDs []uint64) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		q := tx.Table("documents").
			Distinct("documents.*").
			Joins("LEFT JOIN acls ON acls.document_id = documents.id").
			Where("documents.tenant_id = ?", tenant.ID)
		if len(groupIDs) > 0 {
			q = q.Where("documents.uploaded_by_id = ? OR acls.user_id = ? OR acls.group_id IN ?", userID, userID, groupIDs)
		} else {
			q = q.Where("documents.uploaded_by_id = ? OR acls.user_id = ?", userID, userID)
		}
		return q.Order("documents.uploaded_at DESC").Find(&docs).Error
	})
	return docs, err
}
