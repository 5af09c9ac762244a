package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"docmanager/internal/domain"
	"docmanager/internal/tenancy"
)

type MockMembers struct {
	mock.Mock
}

func (m *MockMembers) IsMember(ctx context.Context, tenant *domain.Tenant, userID uint64) (bool, error) {
	args := m.Called(ctx, tenant, userID)
	return args.Bool(0), args.Error(1)
}

type stubTenantStore struct {
	tenants map[string]*domain.Tenant
}

func (s *stubTenantStore) FindActiveByDomain(_ context.Context, domainName string) (*domain.Tenant, error) {
	if tenant, ok := s.tenants[domainName]; ok {
		return tenant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func setup(members MembershipChecker, store tenancy.TenantStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(TenantContext(tenancy.NewResolver(store)))
	router.GET("/documents", RequireTenant(members), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": TenantFromContext(c).Name})
	})
	return router
}

func TestRequireTenantRejectsUnresolvedHost(t *testing.T) {
	members := new(MockMembers)
	router := setup(members, &stubTenantStore{tenants: map[string]*domain.Tenant{}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Host = "localhost:8080"
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireTenantAllowsResolvedSubdomain(t *testing.T) {
	members := new(MockMembers)
	acme := &domain.Tenant{ID: 1, Name: "Acme", Domain: "acme", IsActive: true}
	router := setup(members, &stubTenantStore{tenants: map[string]*domain.Tenant{"acme": acme}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Host = "acme.example.com"
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Acme")
}

func TestRequireTenantChecksMembership(t *testing.T) {
	acme := &domain.Tenant{ID: 1, Name: "Acme", Domain: "acme", IsActive: true}
	store := &stubTenantStore{tenants: map[string]*domain.Tenant{"acme": acme}}

	members := new(MockMembers)
	members.On("IsMember", mock.Anything, acme, uint64(7)).Return(false, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(func(c *gin.Context) { c.Set("user_id", uint64(7)) })
	router.Use(TenantContext(tenancy.NewResolver(store)))
	router.GET("/documents", RequireTenant(members), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Host = "acme.example.com"
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	members.AssertExpectations(t)
}
