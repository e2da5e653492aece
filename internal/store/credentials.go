package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cardioscan-server/internal/models"
)

// CredentialStore persists user credentials.
type CredentialStore struct {
	DB *gorm.DB
}

// NewCredentialStore creates a new CredentialStore.
func NewCredentialStore(db *gorm.DB) *CredentialStore {
	return &CredentialStore{DB: db}
}

// Create registers a new credential. The password is hashed before it is
// persisted and a fresh storage folder is generated; the folder id is
// returned so the caller can namespace the user's artifacts. A taken
// username fails with ErrDuplicateUsername.
func (s *CredentialStore) Create(ctx context.Context, username, password string, role models.Role) (string, error) {
	cred := models.Credential{
		Username:      username,
		Role:          role,
		StorageFolder: uuid.New().String(),
	}
	if err := cred.SetPassword(password); err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if err := s.DB.WithContext(ctx).Create(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ErrDuplicateUsername
		}
		return "", fmt.Errorf("creating credential: %w", err)
	}
	return cred.StorageFolder, nil
}

// Lookup fetches a credential by username.
func (s *CredentialStore) Lookup(ctx context.Context, username string) (*models.Credential, error) {
	var cred models.Credential
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up credential: %w", err)
	}
	return &cred, nil
}
