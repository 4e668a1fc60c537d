package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"docauth/internal/auth"
	"docauth/internal/repository"
)

// AuthService exchanges credentials for bearer tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	log    *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{users: users, tokens: tokens, log: log.With(zap.String("component", "auth"))}
}

// Login checks the password and issues a token pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	if username == "" || password == "" {
		return nil, ErrUnauthorized
	}
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		s.log.Info("login_failed", zap.String("username", username))
		return nil, ErrUnauthorized
	}
	return s.tokens.Issue(u)
}

// Refresh issues a new pair from a refresh token. The user is reloaded so that
// admin flag changes take effect on the next refresh.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return s.tokens.Issue(u)
}
