package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/formalin/internal/core/domain"
	"github.com/rl1809/formalin/internal/port"
)

// UserService backs the username/password directory that sits next to the
// item endpoints.
type UserService struct {
	repo   port.UserRepository
	cost   int
	logger *zap.Logger
}

func NewUserService(repo port.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cost: bcrypt.DefaultCost, logger: logger}
}

func (s *UserService) ListUsernames(ctx context.Context) ([]string, error) {
	names, err := s.repo.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return names, nil
}

func (s *UserService) Register(ctx context.Context, username, password string, isAdmin bool) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	hash, err := s.hash(password)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateUser(ctx, domain.User{Username: username, PasswordHash: hash, IsAdmin: isAdmin})
	if err != nil {
		return 0, fmt.Errorf("register %q: %w", username, err)
	}

	s.logger.Info("user registered", zap.String("username", username), zap.Bool("is_admin", isAdmin))
	return id, nil
}

// VerifyPassword returns domain.ErrUserNotFound or
// domain.ErrInvalidCredentials when the pair does not match.
func (s *UserService) VerifyPassword(ctx context.Context, username, password string) error {
	_, err := s.authenticate(ctx, username, password)
	return err
}

func (s *UserService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		s.logger.Warn("login rejected", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// UpdateCredentials replaces the password and/or admin flag; nil leaves the
// stored value unchanged.
func (s *UserService) UpdateCredentials(ctx context.Context, username string, newPassword *string, newIsAdmin *bool) error {
	var hash *string
	if newPassword != nil && *newPassword != "" {
		h, err := s.hash(*newPassword)
		if err != nil {
			return err
		}
		hash = &h
	}

	if err := s.repo.UpdateCredentials(ctx, username, hash, newIsAdmin); err != nil {
		return fmt.Errorf("update user %q: %w", username, err)
	}
	return nil
}

func (s *UserService) authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return user, nil
}

func (s *UserService) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
