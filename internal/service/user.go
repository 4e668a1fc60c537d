package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docauth/internal/auth"
	"docauth/internal/model"
	"docauth/internal/repository"
)

const minPasswordLength = 8

// CreateUserRequest carries the fields accepted by create_user.
type CreateUserRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Password  *string `json:"password"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsAdmin   *bool   `json:"is_admin"`
}

// UserListResult is the service-level DTO for paginated users.
type UserListResult struct {
	Items []model.User `json:"data"`
	Total int          `json:"total"`
}

type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (*model.User, error)
	List(ctx context.Context, limit, offset int) (*UserListResult, error)
	// Update applies req to user id on behalf of actor. Non-admins may only edit
	// themselves and may never change the admin flag.
	Update(ctx context.Context, actor model.Principal, id string, req UpdateUserRequest) (*model.User, error)
	// EnsureAdmin creates an administrator named username unless one already exists.
	EnsureAdmin(ctx context.Context, username, password, email string) (bool, error)
}

type userService struct {
	repo repository.UserRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewUserService(repo repository.UserRepository, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{repo: repo, log: log.With(zap.String("component", "users")), now: time.Now}
}

func validateUsername(u string) error {
	if u == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if strings.ContainsAny(u, " \t\r\n") {
		return fmt.Errorf("%w: username must not contain whitespace", ErrInvalidInput)
	}
	return nil
}

func validatePassword(p string) error {
	if len(p) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

func validateEmail(e string) error {
	if e != "" && !strings.Contains(e, "@") {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	return nil
}

func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := errors.Join(validateUsername(req.Username), validatePassword(req.Password), validateEmail(req.Email)); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	now := s.now().UTC()
	u, err := s.repo.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hash,
		IsAdmin:      req.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, req.Username)
		}
		return nil, err
	}
	s.log.Info("user_created", zap.String("user_id", u.ID), zap.String("username", u.Username), zap.Bool("is_admin", u.IsAdmin))
	return u, nil
}

func (s *userService) List(ctx context.Context, limit, offset int) (*UserListResult, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UserListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *userService) Update(ctx context.Context, actor model.Principal, id string, req UpdateUserRequest) (*model.User, error) {
	if !actor.IsAdmin {
		if actor.UserID != id {
			return nil, ErrForbidden
		}
		if req.IsAdmin != nil {
			return nil, fmt.Errorf("%w: only administrators can change the admin flag", ErrForbidden)
		}
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if err := validateUsername(name); err != nil {
			return nil, err
		}
		u.Username = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.IsAdmin != nil {
		u.IsAdmin = *req.IsAdmin
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now().UTC()

	out, err := s.repo.Update(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, u.Username)
		}
		return nil, err
	}
	s.log.Info("user_updated", zap.String("user_id", out.ID), zap.String("actor_id", actor.UserID))
	return out, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	if username == "" {
		return false, nil
	}
	_, err := s.repo.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	if _, err := s.Create(ctx, CreateUserRequest{Username: username, Password: password, Email: email, IsAdmin: true}); err != nil {
		return false, fmt.Errorf("bootstrap admin: %w", err)
	}
	return true, nil
}
