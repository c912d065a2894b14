package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"xcar/internal/domain"
	"xcar/internal/middleware"
	"xcar/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// DefaultAccessTokenExpiration applies when no expiry is configured.
	DefaultAccessTokenExpiration = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService defines the interface for account business logic
type UserService interface {
	// Register creates an account. The admin flag is derived from the email.
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	// Login checks credentials and returns the session with a signed token.
	Login(ctx context.Context, email, password string) (*domain.Session, error)
}

type userService struct {
	userRepo    repository.UserRepository
	jwtSecret   string
	tokenExpiry time.Duration
	bcryptCost  int
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, jwtSecret string, tokenExpiry time.Duration) UserService {
	if tokenExpiry <= 0 {
		tokenExpiry = DefaultAccessTokenExpiration
	}
	return &userService{
		userRepo:    userRepo,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		bcryptCost:  BcryptCost,
	}
}

// Register creates a new user account with hashed password
func (s *userService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)

	// Check if user already exists
	existingUser, err := s.userRepo.FindByEmail(ctx, reg.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, repository.ErrUserAlreadyExists
	}

	hashedPassword, err := s.hashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
		Phone:        reg.Phone,
		PasswordHash: hashedPassword,
		IsAdmin:      domain.IsAdminEmail(reg.Email),
		CreatedAt:    time.Now().UTC(),
	}

	// A concurrent registration can still hit the unique index.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a session carrying an access token
func (s *userService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := middleware.RoleMember
	if user.IsAdmin {
		role = middleware.RoleAdmin
	}
	token, err := middleware.IssueToken(s.jwtSecret, user.ID, role, s.tokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.Session{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		IsAdmin:   user.IsAdmin,
		Token:     token,
	}, nil
}

// hashPassword hashes a password using bcrypt
func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
