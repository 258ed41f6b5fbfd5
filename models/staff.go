package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Staff is a dashboard operator account. Token issuance and role policy live
// outside this service; the auth middleware only consumes claims referencing
// these rows.
type Staff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex:uk_staff_username" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:32;not null;default:'operator'" json:"role"`
	IsActive     *bool     `gorm:"default:true" json:"is_active,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Staff) TableName() string { return "staff" }

// SetPassword hashes and stores the given plaintext password
func (s *Staff) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the given plaintext password against the stored hash
func (s *Staff) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(plain)) == nil
}

// StaffFilter provides filter fields for repository queries
type StaffFilter struct {
	ID       *uint
	Username *string
	IsActive *bool
}
