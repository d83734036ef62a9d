package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bekzat-dev/tournament-app/models"
	"github.com/bekzat-dev/tournament-app/repositories"
	"golang.org/x/crypto/bcrypt"
)

// AdminUserService - операции над пользователями для администратора.
type AdminUserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUser(ctx context.Context, id int, input AdminUpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error
}

type AdminUpdateUserInput struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type adminUserService struct {
	userRepo repositories.UserRepository
}

func NewAdminUserService(userRepo repositories.UserRepository) AdminUserService {
	return &adminUserService{
		userRepo: userRepo,
	}
}

func (s *adminUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.ListWithProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *adminUserService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *adminUserService) UpdateUser(ctx context.Context, id int, input AdminUpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			return nil, ErrValidationFailed
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, ErrPasswordTooShort
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}
	if input.Role != nil {
		role := models.UserRole(*input.Role)
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		user.Role = role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *adminUserService) DeleteUser(ctx context.Context, id int) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}
