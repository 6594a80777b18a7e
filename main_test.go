package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"warbler/crud"
	"warbler/database/dbtest"
	"warbler/domain"
)

func TestClearUserImages(t *testing.T) {
	gdb := dbtest.New(t)
	services, err := crud.NewServices(gdb,
		crud.WithUser("test-pepper", bcrypt.MinCost),
		crud.WithImage(t.TempDir()),
	)
	require.NoError(t, err)
	user, err := services.User.Signup(context.Background(), "alice", "alice@example.com", "password1", "")
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	require.NoError(t, services.Image.Create(&domain.Image{
		OwnerType: domain.OwnerTypeUser,
		OwnerID:   user.ID,
		Filename:  "me.png",
		File:      bytes.NewReader(png),
	}))

	imgs, err := services.Image.ByOwner(domain.OwnerTypeUser, user.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)

	require.NoError(t, clearUserImages(gdb, services.Image))
	imgs, err = services.Image.ByOwner(domain.OwnerTypeUser, user.ID)
	require.NoError(t, err)
	assert.Empty(t, imgs)
}
