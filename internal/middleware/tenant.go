package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"docmanager/internal/domain"
	"docmanager/internal/errors"
	"docmanager/internal/tenancy"
)

const tenantKey = "tenant"

// MembershipChecker gates tenant entry on a membership row.
type MembershipChecker interface {
	IsMember(ctx context.Context, tenant *domain.Tenant, userID uint64) (bool, error)
}

// TenantContext resolves the request's tenant and attaches it to the
// gin context. Resolution failure attaches nothing; RequireTenant
// decides whether that fails the request.
func TenantContext(resolver *tenancy.Resolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tenant, err := resolver.Resolve(ctx.Request.Context(), ctx.Request.Host, ctx.Request.URL.Path)
		if err != nil {
			ctx.Error(err)
			ctx.Abort()
			return
		}
		if tenant != nil {
			ctx.Set(tenantKey, tenant)
		}
		ctx.Next()
	}
}

// RequireTenant rejects tenant-scoped operations without a resolved
// tenant, and without a membership when a user is authenticated.
func RequireTenant(members MembershipChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tenant := TenantFromContext(ctx)
		if tenant == nil {
			ctx.Error(errors.Forbidden("No tenant context available", tenancy.ErrNoTenant))
			ctx.Abort()
			return
		}

		if userID, ok := ctx.Get("user_id"); ok {
			isMember, err := members.IsMember(ctx.Request.Context(), tenant, userID.(uint64))
			if err != nil {
				ctx.Error(err)
				ctx.Abort()
				return
			}
			if !isMember {
				ctx.Error(errors.Forbidden("Not a member of this tenant", nil))
				ctx.Abort()
				return
			}
		}
		ctx.Next()
	}
}

// TenantFromContext returns the resolved tenant, nil when absent.
func TenantFromContext(ctx *gin.Context) *domain.Tenant {
	val, ok := ctx.Get(tenantKey)
	if !ok {
		return nil
	}
	return val.(*domain.Tenant)
}
