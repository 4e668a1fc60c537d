package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"docauth/internal/model"
	"docauth/internal/repository"
)

// UserMemory is a map-backed repository.UserRepository.
type UserMemory struct {
	mu         sync.RWMutex
	byID       map[string]model.User
	byUsername map[string]string
}

func NewUserMemory() *UserMemory {
	return &UserMemory{
		byID:       make(map[string]model.User),
		byUsername: make(map[string]string),
	}
}

var _ repository.UserRepository = (*UserMemory)(nil)

func (r *UserMemory) Create(_ context.Context, u *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; ok {
		return nil, fmt.Errorf("%w: user %s", repository.ErrConflict, u.ID)
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return nil, fmt.Errorf("%w: username %s", repository.ErrConflict, u.Username)
	}
	r.byID[u.ID] = *u
	r.byUsername[u.Username] = u.ID
	out := *u
	return &out, nil
}

func (r *UserMemory) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserMemory) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserMemory) List(_ context.Context, pq repository.PageQuery) (*repository.PageResult[model.User], error) {
	r.mu.RLock()
	all := make([]model.User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, u)
	}
	r.mu.RUnlock()

	slices.SortFunc(all, func(a, b model.User) int { return strings.Compare(a.Username, b.Username) })
	start, end := window(len(all), pq)
	return &repository.PageResult[model.User]{Items: all[start:end], Total: len(all)}, nil
}

func (r *UserMemory) Update(_ context.Context, u *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.byID[u.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.Username != prev.Username {
		if _, taken := r.byUsername[u.Username]; taken {
			return nil, fmt.Errorf("%w: username %s", repository.ErrConflict, u.Username)
		}
		delete(r.byUsername, prev.Username)
		r.byUsername[u.Username] = u.ID
	}
	next := *u
	next.CreatedAt = prev.CreatedAt
	r.byID[u.ID] = next
	return &next, nil
}
