package document

import (
	"context"
	"sync"
	"time"

	"github.com/dtroode/gophchat-server/internal/model"
)

const usersKey = "users.json"

var _ model.UserStore = (*UserRepository)(nil)

type userDoc struct {
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository keeps every user in a single document keyed by email.
type UserRepository struct {
	storage model.Storage
	mu      sync.Mutex
}

func NewUserRepository(storage model.Storage) *UserRepository {
	return &UserRepository{storage: storage}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := map[string]userDoc{}
	if _, err := load(ctx, r.storage, usersKey, &users); err != nil {
		return err
	}
	if _, ok := users[user.Email]; ok {
		return model.ErrAlreadyExists
	}

	users[user.Email] = userDoc{Password: user.PasswordHash, CreatedAt: user.CreatedAt}
	return save(ctx, r.storage, usersKey, users)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (model.User, error) {
	users := map[string]userDoc{}
	if _, err := load(ctx, r.storage, usersKey, &users); err != nil {
		return model.User{}, err
	}

	doc, ok := users[email]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return model.User{Email: email, PasswordHash: doc.Password, CreatedAt: doc.CreatedAt}, nil
}
