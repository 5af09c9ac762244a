package content

import (
	"context"

	"gorm.io/gorm"

	"docmanager/internal/domain"
)

// GormRecords keeps StoredFile rows in the shared public schema under
// both isolation strategies: global dedup must see every tenant's
// rows, and the scope key carries the tenant under per-tenant dedup.
type GormRecords struct {
	db *gorm.DB
}

func NewRecords(db *gorm.DB) *GormRecords {
	return &GormRecords{db: db}
}

func (r *GormRecords) FindByScopeKey(ctx context.Context, scopeKey string) (*domain.StoredFile, error) {
	var sf domain.StoredFile
	err := r.db.WithContext(ctx).Where("scope_key = ?", scopeKey).First(&sf).Error
	if err != nil {
		return nil, err
	}
	return &sf, nil
}

func (r *GormRecords) Create(ctx context.Context, sf *domain.StoredFile) error {
	return r.db.WithContext(ctx).Create(sf).Error
}

func (r *GormRecords) DeleteIfUnreferenced(ctx context.Context, storedFileID uint64) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&domain.Document{}).
			Where("stored_file_id = ?", storedFileID).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return nil
		}
		if err := tx.Delete(&domain.StoredFile{}, storedFileID).Error; err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func (r *GormRecords) KnownPath(ctx context.Context, storagePath string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.StoredFile{}).
		Where("storage_path = ?", storagePath).
		Count(&count).Error
	return count > 0, err
}
