package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"docmanager/internal/domain"
	apierrors "docmanager/internal/errors"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Memberships(ctx context.Context, userID uint64) ([]domain.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Membership), args.Error(1)
}

func (m *MockUserRepository) HasMembership(ctx context.Context, tenantID, userID uint64) (bool, error) {
	args := m.Called(ctx, tenantID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) BumpTokenVersion(ctx context.Context, id uint64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestRegisterHashesPassword(t *testing.T) {
	repository := new(MockUserRepository)
	service := NewService(repository)

	repository.On("FindByEmail", mock.Anything, "alice@acme.test").Return(nil, gorm.ErrRecordNotFound)
	repository.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	user := &domain.User{Email: "alice@acme.test", Name: "Alice", Password: "s3cret"}
	require.NoError(t, service.Register(context.Background(), user))

	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repository := new(MockUserRepository)
	service := NewService(repository)

	existing := &domain.User{ID: 1, Email: "alice@acme.test"}
	repository.On("FindByEmail", mock.Anything, "alice@acme.test").Return(existing, nil)

	err := service.Register(context.Background(), &domain.User{Email: "alice@acme.test", Password: "x"})

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	repository.AssertNotCalled(t, "Create")
}

func TestLogin(t *testing.T) {
	repository := new(MockUserRepository)
	service := NewService(repository)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &domain.User{ID: 1, Email: "alice@acme.test", PasswordHash: string(hash), IsActive: true}
	repository.On("FindByEmail", mock.Anything, "alice@acme.test").Return(alice, nil)

	user, err := service.Login(context.Background(), "alice@acme.test", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), user.ID)

	_, err = service.Login(context.Background(), "alice@acme.test", "wrong")
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestLoginInactiveUser(t *testing.T) {
	repository := new(MockUserRepository)
	service := NewService(repository)

	bob := &domain.User{ID: 2, Email: "bob@acme.test", IsActive: false}
	repository.On("FindByEmail", mock.Anything, "bob@acme.test").Return(bob, nil)

	_, err := service.Login(context.Background(), "bob@acme.test", "whatever")

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
}

func TestLogoutBumpsTokenVersion(t *testing.T) {
	repository := new(MockUserRepository)
	service := NewService(repository)

	repository.On("BumpTokenVersion", mock.Anything, uint64(1)).Return(nil)

	require.NoError(t, service.Logout(context.Background(), 1))
	repository.AssertExpectations(t)
}

func TestIsMember(t *testing.T) {
	repository := new(MockUserRepository)
	service := NewService(repository)

	tenant := &domain.Tenant{ID: 3}
	repository.On("HasMembership", mock.Anything, uint64(3), uint64(1)).Return(true, nil)

	isMember, err := service.IsMember(context.Background(), tenant, 1)
	require.NoError(t, err)
	assert.True(t, isMember)
}
