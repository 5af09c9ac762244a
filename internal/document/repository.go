package document

import (
	"context"
	"time"

	"gorm.io/gorm"

	"docmanager/internal/domain"
	"docmanager/internal/tenancy"
)

// DocumentRepository is the document data access layer. Every accessor
// takes the tenant; cross-tenant reads are structurally impossible.
type DocumentRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant, doc *domain.Document) error
	FindByID(ctx context.Context, tenant *domain.Tenant, id uint64) (*domain.Document, error)
	UpdateMeta(ctx context.Context, tenant *domain.Tenant, id uint64, title, description, tags string) error
	Delete(ctx context.Context, tenant *domain.Tenant, id uint64) error
	CreateACL(ctx context.Context, tenant *domain.Tenant, acl *domain.ACL) error
	DeleteACL(ctx context.Context, tenant *domain.Tenant, documentID, aclID uint64) error
	ListACLs(ctx context.Context, tenant *domain.Tenant, documentID uint64) ([]domain.ACL, error)
}

type DocumentRepositoryImpl struct {
	strategy tenancy.Strategy
}

// NewRepository creates a new document repository
func NewRepository(strategy tenancy.Strategy) DocumentRepository {
	return &DocumentRepositoryImpl{strategy: strategy}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, tenant *domain.Tenant, doc *domain.Document) error {
	doc.TenantID = tenant.ID
	doc.UploadedAt = time.Now().UTC()
	doc.UpdatedAt = time.Now().UTC()
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Create(doc).Error
	})
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, tenant *domain.Tenant, id uint64) (*domain.Document, error) {
	var doc domain.Document
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Preload("StoredFile").
			Where("tenant_id = ?", tenant.ID).
			First(&doc, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepositoryImpl) UpdateMeta(ctx context.Context, tenant *domain.Tenant, id uint64, title, description, tags string) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Model(&domain.Document{}).
			Where("tenant_id = ? AND id = ?", tenant.ID, id).
			Updates(map[string]any{
				"title":       title,
				"description": description,
				"tags":        tags,
				"updated_at":  time.Now().UTC(),
			}).Error
	})
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, tenant *domain.Tenant, id uint64) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("document_id = ?", id).Delete(&domain.ACL{}).Error; err != nil {
				return err
			}
			return tx.Where("tenant_id = ?", tenant.ID).Delete(&domain.Document{}, id).Error
		})
	})
}

func (r *DocumentRepositoryImpl) CreateACL(ctx context.Context, tenant *domain.Tenant, acl *domain.ACL) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Create(acl).Error
	})
}

func (r *DocumentRepositoryImpl) DeleteACL(ctx context.Context, tenant *domain.Tenant, documentID, aclID uint64) error {
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("document_id = ?", documentID).Delete(&domain.ACL{}, aclID).Error
	})
}

func (r *DocumentRepositoryImpl) ListACLs(ctx context.Context, tenant *domain.Tenant, documentID uint64) ([]domain.ACL, error) {
	var acls []domain.ACL
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("document_id = ?", documentID).Order("granted_at").Find(&acls).Error
	})
	return acls, err
}
