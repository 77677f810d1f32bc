// Package memory is an in-process UserRepository for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]entity.User), now: time.Now}
}

// emailTaken must be called with mu held.
func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return repository.ErrDuplicateEmail
	}
	now := r.now().UTC()
	u.ID = uuid.NewString()
	u.IsAdmin, u.IsBlocked, u.EmailVerified = false, false, false
	u.CreatedAt, u.UpdatedAt = now, now
	r.users[u.ID] = *u
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *UserRepository) collect(keep func(entity.User) bool) []entity.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.User, 0, len(r.users))
	for _, u := range r.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *UserRepository) FindAll(_ context.Context) ([]entity.User, error) {
	return r.collect(func(entity.User) bool { return true }), nil
}

func (r *UserRepository) FindByFilter(_ context.Context, f entity.UserFilter) ([]entity.User, error) {
	return r.collect(f.Matches), nil
}

func (r *UserRepository) SearchByNameOrEmail(_ context.Context, q string) ([]entity.User, error) {
	q = strings.ToLower(q)
	return r.collect(func(u entity.User) bool {
		return strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q)
	}), nil
}

func (r *UserRepository) UpdateByID(_ context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if patch.IsEmpty() {
		return &u, nil
	}
	if patch.Email != nil && r.emailTaken(*patch.Email, id) {
		return nil, repository.ErrDuplicateEmail
	}
	patch.Apply(&u)
	u.UpdatedAt = r.now().UTC()
	r.users[id] = u
	return &u, nil
}

func (r *UserRepository) DeleteByID(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	return true, nil
}

func (r *UserRepository) Ping(context.Context) error { return nil }

var _ repository.UserRepository = (*UserRepository)(nil)
