package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/domain/repository"
	"github.com/oksasatya/go-user-accounts/internal/infrastructure/store"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

// seed creates an admin account, or promotes the existing account with the
// same email, so protected admin routes can be used right away.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	name := flag.String("name", "admin", "admin display name")
	email := flag.String("email", "admin@example.com", "admin email")
	password := flag.String("password", "password123", "admin password")
	flag.Parse()

	ctx := context.Background()
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open user store: %v", err)
	}
	defer closeStore()

	u, created, err := seedAdmin(ctx, repo, helpers.NewPasswordHasher(cfg.BcryptCost), *name, *email, *password)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if created {
		fmt.Printf("seeded admin: id=%s email=%s name=%s password=%s\n", u.ID, u.Email, u.Name, *password)
		return
	}
	fmt.Printf("promoted existing user to admin: id=%s email=%s\n", u.ID, u.Email)
}

type hasher interface {
	Hash(plain string) (string, error)
}

func seedAdmin(ctx context.Context, repo repository.UserRepository, h hasher, name, email, password string) (*entity.User, bool, error) {
	yes := true
	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		hash, err := h.Hash(password)
		if err != nil {
			return nil, false, err
		}
		u := &entity.User{Name: name, Email: email, Password: hash}
		err = repo.Create(ctx, u)
		switch {
		case err == nil:
			u, err = repo.UpdateByID(ctx, u.ID, entity.UserPatch{IsAdmin: &yes, EmailVerified: &yes})
			if err != nil {
				return nil, false, err
			}
			return u, true, nil
		case !errors.Is(err, repository.ErrDuplicateEmail):
			return nil, false, err
		}
		// lost a race with another writer; promote whatever is there now
		if existing, err = repo.FindByEmail(ctx, email); err != nil || existing == nil {
			return nil, false, fmt.Errorf("reload %s: %w", email, err)
		}
	}
	u, err := repo.UpdateByID(ctx, existing.ID, entity.UserPatch{IsAdmin: &yes})
	if err != nil {
		return nil, false, err
	}
	if u == nil {
		return nil, false, fmt.Errorf("user %s disappeared", email)
	}
	return u, false, nil
}
