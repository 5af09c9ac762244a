package tenancy

import (
	"context"
	"fmt"
	"regexp"

	"gorm.io/gorm"

	"docmanager/internal/config"
	"docmanager/internal/domain"
)

// Strategy runs one logical unit of tenant-scoped work. Repositories
// additionally filter every tenant-scoped query by tenant ID, so the
// partition strategy cannot be bypassed by a forgotten filter in a
// single call site without also naming the wrong tenant explicitly.
type Strategy interface {
	// Run executes fn against a database handle with the tenant's
	// isolation applied. A nil tenant fails with ErrNoTenant.
	Run(ctx context.Context, tenant *domain.Tenant, fn func(tx *gorm.DB) error) error
}

// NewStrategy picks the deployment-time isolation strategy.
func NewStrategy(db *gorm.DB, cfg config.Config) Strategy {
	if cfg.TenantIsolation == "namespace" {
		return &Namespace{db: db}
	}
	return &Partition{db: db}
}

// Partition isolates tenants by row filtering. Repositories carry the
// tenant on every scoped accessor; Run only validates presence.
type Partition struct {
	db *gorm.DB
}

func (p *Partition) Run(ctx context.Context, tenant *domain.Tenant, fn func(tx *gorm.DB) error) error {
	if tenant == nil {
		return ErrNoTenant
	}
	return fn(p.db.WithContext(ctx))
}

// isolationKeyPattern is the shape provisioning enforces for schema
// names. Rechecked here before interpolation into SET search_path,
// which does not take bind parameters.
var isolationKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Namespace isolates tenants by PostgreSQL schema. The search_path is
// switched on a single pooled connection for the duration of fn and
// reset before the connection is released, including on error paths.
type Namespace struct {
	db *gorm.DB
}

func (n *Namespace) Run(ctx context.Context, tenant *domain.Tenant, fn func(tx *gorm.DB) error) error {
	if tenant == nil {
		return ErrNoTenant
	}
	if !isolationKeyPattern.MatchString(tenant.IsolationKey) {
		return fmt.Errorf("invalid isolation key %q", tenant.IsolationKey)
	}

	// Connection pins a single connection from the pool, so the
	// search_path switch cannot leak onto another request's session.
	return n.db.WithContext(ctx).Connection(func(tx *gorm.DB) (err error) {
		if err = tx.Exec(fmt.Sprintf("SET search_path TO %s, public", tenant.IsolationKey)).Error; err != nil {
			return err
		}
		// The reset runs on every exit path. A failed reset poisons the
		// pooled connection, so it must surface even when fn succeeded.
		defer func() {
			if rerr := tx.Exec("SET search_path TO public").Error; rerr != nil && err == nil {
				err = fmt.Errorf("resetting search_path: %w", rerr)
			}
		}()
		return fn(tx)
	})
}
