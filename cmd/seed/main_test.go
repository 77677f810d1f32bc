package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

func TestSeedAdmin_CreatesThenPromotes(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	h := helpers.NewPasswordHasher(bcrypt.MinCost)

	u, created, err := seedAdmin(ctx, repo, h, "root", "root@x.com", "pw")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.IsAdmin)
	assert.True(t, u.EmailVerified)
	ok, err := h.Verify("pw", u.Password)
	require.NoError(t, err)
	assert.True(t, ok)

	plain := &entity.User{Name: "ann", Email: "a@x.com", Password: "x"}
	require.NoError(t, repo.Create(ctx, plain))
	u, created, err = seedAdmin(ctx, repo, h, "ignored", "a@x.com", "pw")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, plain.ID, u.ID)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "x", u.Password)
}
