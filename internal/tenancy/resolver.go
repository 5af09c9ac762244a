package tenancy

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"docmanager/internal/domain"
)

// ErrNoTenant marks a tenant-scoped operation attempted without a
// resolved tenant. Callers decide whether that fails the request.
var ErrNoTenant = errors.New("no tenant in context")

// TenantStore looks up tenants by their routing domain.
type TenantStore interface {
	FindActiveByDomain(ctx context.Context, domain string) (*domain.Tenant, error)
}

// Resolver extracts the active tenant from an inbound request's host
// and path. Resolution failure is not an error: a nil tenant with a
// nil error means "no tenant".
type Resolver struct {
	tenants TenantStore
}

func NewResolver(tenants TenantStore) *Resolver {
	return &Resolver{tenants: tenants}
}

// reservedLabels are host labels that never name a tenant.
var reservedLabels = map[string]bool{
	"www":       true,
	"localhost": true,
}

// Resolve tries the first host label, then a /t/<domain>/ path prefix.
// Administrative and static paths never resolve to a tenant.
func (r *Resolver) Resolve(ctx context.Context, host, path string) (*domain.Tenant, error) {
	if strings.HasPrefix(path, "/admin/") || strings.HasPrefix(path, "/static/") {
		return nil, nil
	}

	// Strip the port, if any.
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}

	// Subdomain extraction (e.g. acme.localhost).
	parts := strings.Split(host, ".")
	if len(parts) > 1 && !reservedLabels[parts[0]] && !isNumeric(parts[0]) {
		tenant, err := r.lookup(ctx, parts[0])
		if err != nil {
			return nil, err
		}
		if tenant != nil {
			return tenant, nil
		}
	}

	// URL prefix extraction (e.g. /t/acme/documents).
	if strings.HasPrefix(path, "/t/") {
		pathParts := strings.Split(path, "/")
		if len(pathParts) > 2 && pathParts[2] != "" {
			return r.lookup(ctx, pathParts[2])
		}
	}

	return nil, nil
}

func (r *Resolver) lookup(ctx context.Context, domainName string) (*domain.Tenant, error) {
	tenant, err := r.tenants.FindActiveByDomain(ctx, domainName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func isNumeric(label string) bool {
	if label == "" {
		return false
	}
	for _, c := range label {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
