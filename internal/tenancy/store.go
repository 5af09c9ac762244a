package tenancy

import (
	"context"

	"gorm.io/gorm"

	"docmanager/internal/domain"
)

// GormTenantStore is the database-backed TenantStore. Tenants live in
// the public schema under both isolation strategies.
type GormTenantStore struct {
	db *gorm.DB
}

func NewTenantStore(db *gorm.DB) *GormTenantStore {
	return &GormTenantStore{db: db}
}

func (s *GormTenantStore) FindActiveByDomain(ctx context.Context, domainName string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := s.db.WithContext(ctx).
		Where("domain = ? AND is_active = ?", domainName, true).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *GormTenantStore) FindByName(ctx context.Context, name string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *GormTenantStore) Create(ctx context.Context, tenant *domain.Tenant) error {
	return s.db.WithContext(ctx).Create(tenant).Error
}
