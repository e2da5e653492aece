package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// ValidRole reports whether r is one of the roles the system knows about.
func ValidRole(r Role) bool {
	return r == RoleDoctor || r == RolePatient
}

// Credential represents a registered user of the system.
// Credentials are created once at registration and never mutated.
type Credential struct {
	Username      string `gorm:"primaryKey;size:255" json:"username"`
	PasswordHash  string `gorm:"size:255;not null" json:"-"` // Never send password hash in JSON
	Role          Role   `gorm:"size:20;not null;default:'patient'" json:"role"`
	StorageFolder string `gorm:"uniqueIndex;size:36;not null" json:"-"`

	// Relations (not always preloaded)
	Records []AnalysisRecord `gorm:"foreignKey:OwnerUsername;references:Username" json:"-"`
}

// SetPassword hashes a password and sets it on the credential.
func (c *Credential) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the credential's stored hash.
// bcrypt performs the comparison in constant time.
func (c *Credential) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	return err == nil
}
