// Package authn signs storefront users in through the API. When the API is
// unreachable it falls back to a local simulation: the reserved admin
// credentials and demo accounts registered on this device.
package authn

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"xcar/internal/domain"
	"xcar/internal/gateway"
	"xcar/internal/kvstore"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Remote is the subset of the API used for authentication.
type Remote interface {
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Register(ctx context.Context, reg domain.Registration) (bool, error)
}

// Registered describes a completed registration.
type Registered struct {
	IsAdmin bool
	// Local is true when the account only exists on this device.
	Local bool
}

type Service struct {
	remote Remote
	store  kvstore.Store
	logger *zap.Logger
}

func NewService(remote Remote, store kvstore.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{remote: remote, store: store, logger: logger}
}

// Login authenticates against the API, or locally when it is unreachable.
// The returned session never carries the password.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)

	session, err := s.remote.Login(ctx, email, password)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, gateway.ErrUnreachable) {
		return domain.Session{}, rejection(err, ErrInvalidCredentials)
	}

	s.logger.Warn("Login API unreachable, using local accounts", zap.Error(err))
	return s.localLogin(email, password)
}

func (s *Service) localLogin(email, password string) (domain.Session, error) {
	if domain.IsAdminEmail(email) && password == domain.AdminPassword {
		return domain.Session{
			FirstName: "Admin",
			LastName:  "User",
			Email:     domain.AdminEmail,
			IsAdmin:   true,
		}, nil
	}

	for _, u := range s.demoUsers() {
		if u.Email == email && u.Password == password {
			return u.Session(), nil
		}
	}
	return domain.Session{}, ErrInvalidCredentials
}

// Register creates an account through the API, or records a demo account
// locally when the API is unreachable. It does not sign the user in.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (Registered, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return Registered{}, fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}

	isAdmin, err := s.remote.Register(ctx, reg)
	if err == nil {
		return Registered{IsAdmin: isAdmin}, nil
	}
	if !errors.Is(err, gateway.ErrUnreachable) {
		var rejected *gateway.RejectedError
		if errors.As(err, &rejected) && rejected.Status == http.StatusConflict {
			return Registered{}, ErrEmailTaken
		}
		return Registered{}, rejection(err, ErrInvalidRegistration)
	}

	s.logger.Warn("Register API unreachable, saving demo account", zap.Error(err))
	return s.localRegister(reg)
}

func (s *Service) localRegister(reg domain.Registration) (Registered, error) {
	users := s.demoUsers()
	for _, u := range users {
		if u.Email == reg.Email {
			return Registered{}, ErrEmailTaken
		}
	}

	user := domain.DemoUser{
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Phone:     reg.Phone,
		Password:  reg.Password,
	}
	if domain.IsAdminEmail(reg.Email) {
		user.IsAdmin = true
		user.Password = domain.AdminPassword
	}

	if err := kvstore.SetJSON(s.store, kvstore.KeyDemoUsers, append(users, user)); err != nil {
		return Registered{}, fmt.Errorf("save demo account: %w", err)
	}
	return Registered{IsAdmin: user.IsAdmin, Local: true}, nil
}

func (s *Service) demoUsers() []domain.DemoUser {
	var users []domain.DemoUser
	if _, err := kvstore.GetJSON(s.store, kvstore.KeyDemoUsers, &users); err != nil {
		s.logger.Warn("Ignoring unreadable demo accounts", zap.Error(err))
		return nil
	}
	return users
}

// rejection wraps a server rejection in sentinel so callers can match it and
// still read the server's message.
func rejection(err, sentinel error) error {
	var rejected *gateway.RejectedError
	if errors.As(err, &rejected) {
		return fmt.Errorf("%w: %s", sentinel, rejected.Message)
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
