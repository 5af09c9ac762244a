package audit

import (
	"context"
	"log"

	"gorm.io/gorm"

	"docmanager/internal/domain"
	"docmanager/internal/tenancy"
	"docmanager/internal/worker"
)

// Recorder appends to the tenant's audit trail. Entries are never
// updated or deleted; reads come back newest first.
type Recorder struct {
	strategy tenancy.Strategy
	pool     *worker.Pool
}

func NewRecorder(strategy tenancy.Strategy, pool *worker.Pool) *Recorder {
	return &Recorder{strategy: strategy, pool: pool}
}

// Record appends one entry synchronously.
func (r *Recorder) Record(ctx context.Context, tenant *domain.Tenant, entry domain.AuditLog) error {
	entry.TenantID = tenant.ID
	return r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Create(&entry).Error
	})
}

// RecordAsync appends one entry off the request path. A dropped entry
// is logged, never surfaced to the request.
func (r *Recorder) RecordAsync(tenant *domain.Tenant, entry domain.AuditLog) {
	r.pool.Submit(func(ctx context.Context) error {
		if err := r.Record(ctx, tenant, entry); err != nil {
			log.Printf("[ERROR] Failed to record audit entry (%s on tenant %d): %v", entry.Action, tenant.ID, err)
			return err
		}
		return nil
	})
}

// ListForDocument returns the latest entries for one document.
func (r *Recorder) ListForDocument(ctx context.Context, tenant *domain.Tenant, documentID uint64, limit int) ([]domain.AuditLog, error) {
	var entries []domain.AuditLog
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ? AND document_id = ?", tenant.ID, documentID).
			Order("timestamp DESC").
			Limit(limit).
			Find(&entries).Error
	})
	return entries, err
}

// ListForTenant returns a page of the tenant's trail, newest first.
func (r *Recorder) ListForTenant(ctx context.Context, tenant *domain.Tenant, page, pageSize int) ([]domain.AuditLog, error) {
	var entries []domain.AuditLog
	err := r.strategy.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.Where("tenant_id = ?", tenant.ID).
			Order("timestamp DESC").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&entries).Error
	})
	return entries, err
}
