package user

import (
	"context"
	defErrors "errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"docmanager/internal/domain"
	"docmanager/internal/errors"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Logout(ctx context.Context, userID uint64) error
	GetUserByID(ctx context.Context, id uint64) (*domain.User, error)
	Memberships(ctx context.Context, userID uint64) ([]domain.Membership, error)
	IsMember(ctx context.Context, tenant *domain.Tenant, userID uint64) (bool, error)
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register registers a new user
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	_, err := s.repository.FindByEmail(ctx, user.Email)
	if err != nil && !defErrors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Cannot hash password", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.IsActive = true

	return s.repository.Create(ctx, user)
}

// Login authenticates a user
func (s *DefaultService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.repository.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Unauthorized("User not found", err)
	}

	if !user.IsActive {
		return nil, errors.Unauthorized("User is not active", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Wrong password", err)
	}

	return user, nil
}

// Logout invalidates all outstanding tokens for the user.
func (s *DefaultService) Logout(ctx context.Context, userID uint64) error {
	return s.repository.BumpTokenVersion(ctx, userID)
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(ctx context.Context, id uint64) (*domain.User, error) {
	return s.repository.FindByID(ctx, id)
}

// Memberships lists the tenants the user can enter.
func (s *DefaultService) Memberships(ctx context.Context, userID uint64) ([]domain.Membership, error) {
	return s.repository.Memberships(ctx, userID)
}

// IsMember reports whether the user belongs to the tenant.
func (s *DefaultService) IsMember(ctx context.Context, tenant *domain.Tenant, userID uint64) (bool, error) {
	return s.repository.HasMembership(ctx, tenant.ID, userID)
}
