package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/go-user-accounts/config"
	"github.com/oksasatya/go-user-accounts/pkg/helpers"
)

func TestOpen_UnknownDriver(t *testing.T) {
	repo, closeFn, err := Open(context.Background(), &config.Config{StoreDriver: "sqlite"}, helpers.NewDiscardLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store driver "sqlite"`)
	assert.Nil(t, repo)
	assert.Nil(t, closeFn)
}

func TestOpen_Memory(t *testing.T) {
	repo, closeFn, err := Open(context.Background(), &config.Config{StoreDriver: config.StoreMemory}, helpers.NewDiscardLogger())
	assert.NoError(t, err)
	assert.NotNil(t, repo)
	assert.NoError(t, repo.Ping(context.Background()))
	closeFn()
}
