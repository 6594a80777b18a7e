package crud

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"warbler/database/dbtest"
	"warbler/domain"
)

const testPepper = "test-pepper"

// newTestServices returns all crud services on top of a fresh database.
func newTestServices(t *testing.T) *Services {
	t.Helper()
	s, err := NewServices(dbtest.New(t),
		WithUser(testPepper, bcrypt.MinCost),
		WithMessage(),
		WithFollow(),
		WithLike(),
		WithImage(t.TempDir()),
		WithOAuth(),
	)
	require.NoError(t, err)
	return s
}

// mustSignup creates a user named username with the password "password-<username>".
func mustSignup(t *testing.T, s *Services, username string) *domain.User {
	t.Helper()
	u, err := s.User.Signup(context.Background(), username, username+"@example.com", "password-"+username, "")
	require.NoError(t, err)
	return u
}
