package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/periko-gan/linkcurt-backend/internal/auth"
	"github.com/periko-gan/linkcurt-backend/internal/database"
	"github.com/periko-gan/linkcurt-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when a login attempt fails. The
// same error covers unknown emails and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository defines the interface for working with users at the business logic layer.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, name string, birthDate *time.Time, role models.Role) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id int64, name string, birthDate *time.Time) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserService manages account registration, login and user CRUD.
type UserService struct {
	repo   UserRepository
	tokens *auth.TokenManager
}

func NewUserService(repo UserRepository, tokens *auth.TokenManager) *UserService {
	return &UserService{
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates an account with the "user" role and a bcrypt-hashed
// credential.
func (s *UserService) Register(ctx context.Context, email, password, name string, birthDate *time.Time) (*models.User, error) {
	const op = "service.UserService.Register"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := s.repo.Create(ctx, email, string(hash), name, birthDate, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to register user: %w", op, err)
	}

	return user, nil
}

// Login verifies the credential and issues a bearer token carrying the
// user's email and role.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	const op = "service.UserService.Login"

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return "", nil, fmt.Errorf("%s: failed to load user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: failed to issue token: %w", op, err)
	}

	return token, user, nil
}

// GetUserByEmail loads a user by the email claim embedded in a token.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "service.UserService.GetUserByEmail"

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return user, nil
}

// GetUser retrieves a user by identifier.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	const op = "service.UserService.GetUser"

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	return user, nil
}

// ListUsers returns all registered users.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "service.UserService.ListUsers"

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list users: %w", op, err)
	}

	return users, nil
}

// ModifyUser updates the mutable profile fields of a user.
func (s *UserService) ModifyUser(ctx context.Context, id int64, name string, birthDate *time.Time) (*models.User, error) {
	const op = "service.UserService.ModifyUser"

	user, err := s.repo.Update(ctx, id, name, birthDate)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify user: %w", op, err)
	}

	return user, nil
}

// RemoveUser deletes a user and, through the schema's cascade rules,
// their links and visits.
func (s *UserService) RemoveUser(ctx context.Context, id int64) error {
	const op = "service.UserService.RemoveUser"

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: failed to remove user: %w", op, err)
	}

	return nil
}
