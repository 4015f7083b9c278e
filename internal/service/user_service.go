package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fund-tracker/internal/logging"
	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/storage"
	"github.com/fund-tracker/internal/types"
)

// UserService manages user accounts. Passwords are stored as bcrypt hashes
// and never leave this layer in any readable form.
type UserService struct {
	userRepo UserRepository
	logger   *logging.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logging.GetGlobalLogger(),
	}
}

// RegisterInput holds the caller-supplied fields of a new account
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

// UpdateProfileInput holds the mutable profile fields
type UpdateProfileInput struct {
	FullName string
}

// Register creates a new user account with a bcrypt-hashed password.
// Email is normalized to lower case and unique across accounts.
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "a valid email is required",
		}
	}
	if len(input.Password) < 8 {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "password must be at least 8 characters",
		}
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &types.ServiceError{
			Code:    types.ErrConflict,
			Message: "email already registered",
			Details: map[string]interface{}{"email": email},
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(input.FullName),
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")

	return user, nil
}

// GetProfile returns a user's account record
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, s.notFound(userID)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile rewrites a user's mutable profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return nil, s.notFound(userID)
		}
		return nil, err
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, &types.ServiceError{
			Code:    types.ErrInvalidInput,
			Message: "full name is required",
		}
	}

	user.FullName = fullName
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Deactivate marks a user's account inactive. The record and its investments
// are kept.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRows) {
			return s.notFound(userID)
		}
		return err
	}

	if !user.IsActive {
		return nil
	}

	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.logger.WithField("user_id", userID).Info("user deactivated")

	return nil
}

func (s *UserService) notFound(userID string) error {
	return &types.ServiceError{
		Code:    types.ErrNotFound,
		Message: "user not found",
		Details: map[string]interface{}{"userId": userID},
	}
}
