package folder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"docmanager/internal/audit"
	"docmanager/internal/config"
	"docmanager/internal/content"
	"docmanager/internal/domain"
	apierrors "docmanager/internal/errors"
	"docmanager/internal/permission"
	"docmanager/internal/worker"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, tenant *domain.Tenant, folder *domain.Folder) error {
	args := m.Called(ctx, tenant, folder)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, tenant *domain.Tenant, id uint64) (*domain.Folder, error) {
	args := m.Called(ctx, tenant, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Folder), args.Error(1)
}

func (m *MockRepository) ListChildren(ctx context.Context, tenant *domain.Tenant, parentID *uint64) ([]domain.Folder, error) {
	args := m.Called(ctx, tenant, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Folder), args.Error(1)
}

func (m *MockRepository) ChildIDs(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]uint64, error) {
	args := m.Called(ctx, tenant, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockRepository) UpdateParent(ctx context.Context, tenant *domain.Tenant, folderID uint64, parentID *uint64) error {
	args := m.Called(ctx, tenant, folderID, parentID)
	return args.Error(0)
}

func (m *MockRepository) DeleteCascade(ctx context.Context, tenant *domain.Tenant, folderIDs []uint64) ([]uint64, error) {
	args := m.Called(ctx, tenant, folderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockRepository) CreateACL(ctx context.Context, tenant *domain.Tenant, acl *domain.FolderACL) error {
	args := m.Called(ctx, tenant, acl)
	return args.Error(0)
}

func (m *MockRepository) DeleteACL(ctx context.Context, tenant *domain.Tenant, folderID, aclID uint64) error {
	args := m.Called(ctx, tenant, folderID, aclID)
	return args.Error(0)
}

func (m *MockRepository) ListACLs(ctx context.Context, tenant *domain.Tenant, folderID uint64) ([]domain.FolderACL, error) {
	args := m.Called(ctx, tenant, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FolderACL), args.Error(1)
}

// stubPermStore backs the permission engine with fixed roles. Folder
// access in these tests comes from roles or creatorship, not grants.
type stubPermStore struct {
	roles map[uint64]domain.RoleLevel
}

func (s *stubPermStore) RoleFor(_ context.Context, _ *domain.Tenant, userID uint64) (domain.RoleLevel, bool, error) {
	level, ok := s.roles[userID]
	return level, ok, nil
}

func (s *stubPermStore) GroupIDs(context.Context, *domain.Tenant, uint64) ([]uint64, error) {
	return nil, nil
}

func (s *stubPermStore) HasDocumentUserGrant(context.Context, *domain.Tenant, uint64, uint64, domain.DocumentAction) (bool, error) {
	return false, nil
}

func (s *stubPermStore) HasDocumentGroupGrant(context.Context, *domain.Tenant, uint64, []uint64, domain.DocumentAction) (bool, error) {
	return false, nil
}

func (s *stubPermStore) HasFolderUserGrant(context.Context, *domain.Tenant, uint64, uint64, domain.FolderAction) (bool, error) {
	return false, nil
}

func (s *stubPermStore) HasFolderGroupGrant(context.Context, *domain.Tenant, uint64, []uint64, domain.FolderAction) (bool, error) {
	return false, nil
}

func (s *stubPermStore) FolderByID(context.Context, *domain.Tenant, uint64) (*domain.Folder, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPermStore) AllDocuments(context.Context, *domain.Tenant) ([]domain.Document, error) {
	return nil, nil
}

func (s *stubPermStore) VisibleDocuments(context.Context, *domain.Tenant, uint64, []uint64) ([]domain.Document, error) {
	return nil, nil
}

// nopRecords satisfies the content record store without any rows, so
// Release treats every stored file as unreferenced.
type nopRecords struct{}

func (nopRecords) FindByScopeKey(context.Context, string) (*domain.StoredFile, error) {
	return nil, gorm.ErrRecordNotFound
}
func (nopRecords) Create(context.Context, *domain.StoredFile) error           { return nil }
func (nopRecords) DeleteIfUnreferenced(context.Context, uint64) (bool, error) { return true, nil }
func (nopRecords) KnownPath(context.Context, string) (bool, error)            { return true, nil }

// nopStrategy lets the audit recorder accept entries without a database.
type nopStrategy struct{}

func (nopStrategy) Run(context.Context, *domain.Tenant, func(tx *gorm.DB) error) error {
	return nil
}

const (
	adminUser   = uint64(1)
	creatorUser = uint64(2)
	plainUser   = uint64(3)
)

func newTestService(t *testing.T, repository Repository) Service {
	t.Helper()
	engine := permission.NewEngine(&stubPermStore{roles: map[uint64]domain.RoleLevel{
		adminUser: domain.RoleAdmin,
		plainUser: domain.RoleViewer,
	}})
	store := content.NewStore(nopRecords{}, config.Config{
		StorageRoot:      t.TempDir(),
		MaxUploadSize:    1024,
		AllowedFileTypes: []string{"txt"},
		DedupScope:       domain.DedupGlobal,
	})
	pool := worker.NewPool(1)
	t.Cleanup(pool.Shutdown)
	recorder := audit.NewRecorder(nopStrategy{}, pool)
	return NewService(repository, engine, store, recorder)
}

var tenant = &domain.Tenant{ID: 1, Name: "Acme", IsolationKey: "acme"}

func idPtr(v uint64) *uint64 { return &v }

func TestCreateRejectsEmptyName(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	_, err := service.Create(context.Background(), tenant, adminUser, "", nil)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	repository.AssertNotCalled(t, "Create")
}

func TestCreateRequiresWriteOnParent(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	parent := &domain.Folder{ID: 10, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(10)).Return(parent, nil)

	_, err := service.Create(context.Background(), tenant, plainUser, "drafts", idPtr(10))

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	repository.AssertNotCalled(t, "Create")
}

func TestCreateDuplicateSiblingIsConflict(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	repository.On("Create", mock.Anything, tenant, mock.AnythingOfType("*domain.Folder")).
		Return(gorm.ErrDuplicatedKey)

	_, err := service.Create(context.Background(), tenant, adminUser, "reports", nil)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
}

func TestCreateSetsCreator(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	repository.On("Create", mock.Anything, tenant, mock.AnythingOfType("*domain.Folder")).Return(nil)

	folder, err := service.Create(context.Background(), tenant, creatorUser, "reports", nil)

	require.NoError(t, err)
	require.NotNil(t, folder.CreatedByID)
	assert.Equal(t, creatorUser, *folder.CreatedByID)
	repository.AssertExpectations(t)
}

func TestMoveRejectsSelfParent(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	folder := &domain.Folder{ID: 5, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(5)).Return(folder, nil)

	err := service.Move(context.Background(), tenant, creatorUser, 5, idPtr(5))

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	repository.AssertNotCalled(t, "UpdateParent")
}

func TestMoveRejectsOwnSubtree(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	// a -> b; moving a under b would close a cycle.
	a := &domain.Folder{ID: 1, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	b := &domain.Folder{ID: 2, TenantID: 1, ParentID: idPtr(1), CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(a, nil)
	repository.On("FindByID", mock.Anything, tenant, uint64(2)).Return(b, nil)

	err := service.Move(context.Background(), tenant, creatorUser, 1, idPtr(2))

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	repository.AssertNotCalled(t, "UpdateParent")
}

func TestMoveToValidParent(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	src := &domain.Folder{ID: 1, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	dst := &domain.Folder{ID: 2, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(src, nil)
	repository.On("FindByID", mock.Anything, tenant, uint64(2)).Return(dst, nil)
	repository.On("UpdateParent", mock.Anything, tenant, uint64(1), idPtr(2)).Return(nil)

	err := service.Move(context.Background(), tenant, creatorUser, 1, idPtr(2))

	require.NoError(t, err)
	repository.AssertExpectations(t)
}

func TestMoveToRootIsAlwaysAcyclic(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	folder := &domain.Folder{ID: 1, TenantID: 1, ParentID: idPtr(9), CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(folder, nil)
	repository.On("UpdateParent", mock.Anything, tenant, uint64(1), (*uint64)(nil)).Return(nil)

	err := service.Move(context.Background(), tenant, creatorUser, 1, nil)

	require.NoError(t, err)
	repository.AssertExpectations(t)
}

func TestDeleteCascadesSubtree(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	root := &domain.Folder{ID: 1, TenantID: 1, Name: "reports", CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(root, nil)
	repository.On("ChildIDs", mock.Anything, tenant, uint64(1)).Return([]uint64{2, 3}, nil)
	repository.On("ChildIDs", mock.Anything, tenant, uint64(2)).Return([]uint64{4}, nil)
	repository.On("ChildIDs", mock.Anything, tenant, uint64(3)).Return([]uint64{}, nil)
	repository.On("ChildIDs", mock.Anything, tenant, uint64(4)).Return([]uint64{}, nil)
	repository.On("DeleteCascade", mock.Anything, tenant, []uint64{1, 2, 3, 4}).
		Return([]uint64{100, 101}, nil)

	err := service.Delete(context.Background(), tenant, creatorUser, 1, "127.0.0.1")

	require.NoError(t, err)
	repository.AssertExpectations(t)
}

func TestDeleteRequiresPermission(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	folder := &domain.Folder{ID: 1, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(folder, nil)

	err := service.Delete(context.Background(), tenant, plainUser, 1, "127.0.0.1")

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
	repository.AssertNotCalled(t, "DeleteCascade")
}

func TestGrantValidatesPrincipal(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	acl := &domain.FolderACL{FolderID: 1, Permission: domain.FolderRead}

	err := service.Grant(context.Background(), tenant, adminUser, acl)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	repository.AssertNotCalled(t, "CreateACL")
}

func TestGrantRestrictedToCreatorOrAdmin(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	folder := &domain.Folder{ID: 1, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(folder, nil)

	acl := &domain.FolderACL{FolderID: 1, UserID: idPtr(plainUser), Permission: domain.FolderRead}

	err := service.Grant(context.Background(), tenant, plainUser, acl)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)

	repository.On("CreateACL", mock.Anything, tenant, acl).Return(nil)
	require.NoError(t, service.Grant(context.Background(), tenant, adminUser, acl))
	assert.Equal(t, adminUser, *acl.GrantedByID)
}

func TestListACLsRestrictedToManager(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	folder := &domain.Folder{ID: 1, TenantID: 1, CreatedByID: idPtr(creatorUser)}
	repository.On("FindByID", mock.Anything, tenant, uint64(1)).Return(folder, nil)

	_, err := service.ListACLs(context.Background(), tenant, plainUser, 1)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)

	acls := []domain.FolderACL{{ID: 5, FolderID: 1, UserID: idPtr(plainUser), Permission: domain.FolderRead}}
	repository.On("ListACLs", mock.Anything, tenant, uint64(1)).Return(acls, nil)

	got, err := service.ListACLs(context.Background(), tenant, creatorUser, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGetNotFound(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	repository.On("FindByID", mock.Anything, tenant, uint64(42)).Return(nil, gorm.ErrRecordNotFound)

	_, err := service.Get(context.Background(), tenant, adminUser, 42)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestListChildrenFiltersUnreadable(t *testing.T) {
	repository := new(MockRepository)
	service := newTestService(t, repository)

	children := []domain.Folder{
		{ID: 2, TenantID: 1, CreatedByID: idPtr(creatorUser)},
		{ID: 3, TenantID: 1, CreatedByID: idPtr(adminUser)},
	}
	repository.On("ListChildren", mock.Anything, tenant, (*uint64)(nil)).Return(children, nil)

	// creatorUser has no role; only the folder they created is visible.
	visible, err := service.ListChildren(context.Background(), tenant, creatorUser, nil)

	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, uint64(2), visible[0].ID)
}
