package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cardioscan-server/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	return db
}

func TestCredentialStoreCreateAndLookup(t *testing.T) {
	s := NewCredentialStore(newTestDB(t))
	ctx := context.Background()

	folder, err := s.Create(ctx, "alice", "secret1secret1", models.RolePatient)
	require.NoError(t, err)
	assert.NotEmpty(t, folder)

	cred, err := s.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", cred.Username)
	assert.Equal(t, models.RolePatient, cred.Role)
	assert.Equal(t, folder, cred.StorageFolder)
	assert.True(t, cred.CheckPassword("secret1secret1"))
	assert.NotEqual(t, "secret1secret1", cred.PasswordHash, "password must be stored hashed")
}

func TestCredentialStoreDuplicateUsername(t *testing.T) {
	s := NewCredentialStore(newTestDB(t))
	ctx := context.Background()

	first, err := s.Create(ctx, "alice", "secret1secret1", models.RolePatient)
	require.NoError(t, err)

	_, err = s.Create(ctx, "alice", "otherpassword1", models.RoleDoctor)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// Exactly one row survives, untouched by the failed insert.
	var count int64
	require.NoError(t, s.DB.Model(&models.Credential{}).Where("username = ?", "alice").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	cred, err := s.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RolePatient, cred.Role)
	assert.Equal(t, first, cred.StorageFolder)
}

func TestCredentialStoreStorageFoldersAreUnique(t *testing.T) {
	s := NewCredentialStore(newTestDB(t))
	ctx := context.Background()

	f1, err := s.Create(ctx, "alice", "secret1secret1", models.RolePatient)
	require.NoError(t, err)
	f2, err := s.Create(ctx, "bob", "secret2secret2", models.RoleDoctor)
	require.NoError(t, err)
	assert.NotEqual(t, f1, f2)
}

func TestCredentialStoreLookupMissing(t *testing.T) {
	s := NewCredentialStore(newTestDB(t))

	_, err := s.Lookup(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
