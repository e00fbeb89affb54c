package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// UserService manages login accounts.
type UserService struct {
	userRepo *repository.UserRepository
	auth     *AuthService
	log      zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo *repository.UserRepository, auth *AuthService, log zerolog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		log:      log.With().Str("component", "user_service").Logger(),
	}
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// List retrieves users with pagination and an optional role filter.
func (s *UserService) List(ctx context.Context, role *model.Role, page, perPage int) ([]model.User, *response.Pagination, error) {
	page, perPage = normalizePage(page, perPage)

	users, total, err := s.userRepo.ListPaginated(ctx, role, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, newPagination(page, perPage, total), nil
}

// Create hashes the password and stores a new account. Only parent and
// student accounts may be linked to students.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if len(req.StudentIDs) > 0 && req.Role != model.RoleParent && req.Role != model.RoleStudent {
		return nil, fmt.Errorf("role %s cannot be linked to students: %w", req.Role, ErrInvalidInput)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		StudentIDs:   req.StudentIDs,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}
